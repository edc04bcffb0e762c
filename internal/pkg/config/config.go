package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration for the ingestion service
type Config struct {
	// Environment
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	Standardize StandardizeConfig
	Parsing     ParsingConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Cache       CacheConfig
}

// StandardizeConfig holds the canonical grid definition
type StandardizeConfig struct {
	DomainStart     float64 `mapstructure:"XRD_DOMAIN_START" validate:"gte=0"`
	DomainEnd       float64 `mapstructure:"XRD_DOMAIN_END" validate:"gtfield=DomainStart,lte=180"`
	PointCount      int     `mapstructure:"XRD_POINT_COUNT" validate:"gte=2,lte=65536"`
	ConstantPadding bool    `mapstructure:"XRD_CONSTANT_PADDING"`
}

// ParsingConfig holds per-file decoding limits and collaborator settings
type ParsingConfig struct {
	ReferenceWavelength float64 `mapstructure:"XRD_REFERENCE_WAVELENGTH" validate:"gt=0"`
	MaxFileSizeMB       int64   `mapstructure:"XRD_MAX_FILE_SIZE_MB" validate:"gte=0"`
	DecodeTimeout       time.Duration
	Strict              bool   `mapstructure:"XRD_STRICT"`
	ConverterCommand    string `mapstructure:"XRD_CONVERTER_COMMAND"`
}

// StorageConfig configures where canonical records and reports are written
type StorageConfig struct {
	OutputDir string `mapstructure:"XRD_OUTPUT_DIR" validate:"required"`
}

// DatabaseConfig configures the optional Postgres run store
type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"DB_ENABLED"`
	Host            string `mapstructure:"DB_HOST" validate:"required_if=Enabled true"`
	Port            int    `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER" validate:"required_if=Enabled true"`
	Password        string `mapstructure:"DB_PASSWORD" validate:"required_if=Enabled true"`
	Database        string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	LogLevel        string `mapstructure:"DB_LOG_LEVEL"`
	MaxConnections  int    `mapstructure:"DB_MAX_CONNECTIONS"`
	MinConnections  int    `mapstructure:"DB_MIN_CONNECTIONS"`
	MaxConnLifetime int    `mapstructure:"DB_MAX_CONN_LIFETIME_MINUTES"`
	MaxConnIdleTime int    `mapstructure:"DB_MAX_CONN_IDLE_MINUTES"`
}

// CacheConfig configures the optional Redis parse cache
type CacheConfig struct {
	Enabled      bool   `mapstructure:"REDIS_ENABLED"`
	Host         string `mapstructure:"REDIS_HOST" validate:"required_if=Enabled true"`
	Port         int    `mapstructure:"REDIS_PORT"`
	Password     string `mapstructure:"REDIS_PASSWORD"`
	DB           int    `mapstructure:"REDIS_DB"`
	TTL          time.Duration
	DialTimeout  int `mapstructure:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  int `mapstructure:"REDIS_READ_TIMEOUT"`
	WriteTimeout int `mapstructure:"REDIS_WRITE_TIMEOUT"`
	PoolSize     int `mapstructure:"REDIS_POOL_SIZE"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			slog.Debug("no .env file found, using environment variables only")
		}
	}

	return FromViper(newViper())
}

// newViper returns a viper instance with defaults set and env bound
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")

	// Standardization defaults
	v.SetDefault("XRD_DOMAIN_START", 0.0)
	v.SetDefault("XRD_DOMAIN_END", 90.0)
	v.SetDefault("XRD_POINT_COUNT", 1000)
	v.SetDefault("XRD_CONSTANT_PADDING", false)

	// Parsing defaults
	v.SetDefault("XRD_REFERENCE_WAVELENGTH", 1.5406) // Cu K-alpha1, angstrom
	v.SetDefault("XRD_MAX_FILE_SIZE_MB", 100)
	v.SetDefault("XRD_DECODE_TIMEOUT_SECONDS", 30)
	v.SetDefault("XRD_STRICT", false)
	v.SetDefault("XRD_CONVERTER_COMMAND", "xyconv")

	v.SetDefault("XRD_OUTPUT_DIR", "./out")

	// Database defaults
	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "xrdpattern")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNECTIONS", 10)
	v.SetDefault("DB_MIN_CONNECTIONS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME_MINUTES", 30)
	v.SetDefault("DB_MAX_CONN_IDLE_MINUTES", 5)

	// Redis defaults
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL_HOURS", 24*7)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5)
	v.SetDefault("REDIS_READ_TIMEOUT", 3)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.AutomaticEnv()
	return v
}

// FromViper builds and validates a Config from a prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Standardize: StandardizeConfig{
			DomainStart:     v.GetFloat64("XRD_DOMAIN_START"),
			DomainEnd:       v.GetFloat64("XRD_DOMAIN_END"),
			PointCount:      v.GetInt("XRD_POINT_COUNT"),
			ConstantPadding: v.GetBool("XRD_CONSTANT_PADDING"),
		},
		Parsing: ParsingConfig{
			ReferenceWavelength: v.GetFloat64("XRD_REFERENCE_WAVELENGTH"),
			MaxFileSizeMB:       v.GetInt64("XRD_MAX_FILE_SIZE_MB"),
			DecodeTimeout:       time.Duration(v.GetInt("XRD_DECODE_TIMEOUT_SECONDS")) * time.Second,
			Strict:              v.GetBool("XRD_STRICT"),
			ConverterCommand:    v.GetString("XRD_CONVERTER_COMMAND"),
		},
		Storage: StorageConfig{
			OutputDir: v.GetString("XRD_OUTPUT_DIR"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DB_ENABLED"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
			MaxConnections:  v.GetInt("DB_MAX_CONNECTIONS"),
			MinConnections:  v.GetInt("DB_MIN_CONNECTIONS"),
			MaxConnLifetime: v.GetInt("DB_MAX_CONN_LIFETIME_MINUTES"),
			MaxConnIdleTime: v.GetInt("DB_MAX_CONN_IDLE_MINUTES"),
		},
		Cache: CacheConfig{
			Enabled:      v.GetBool("REDIS_ENABLED"),
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetInt("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			TTL:          time.Duration(v.GetInt("REDIS_TTL_HOURS")) * time.Hour,
			DialTimeout:  v.GetInt("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetInt("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetInt("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the struct tags on the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// MaxFileSizeBytes converts the MB limit to bytes (0 = unlimited)
func (c *Config) MaxFileSizeBytes() int64 {
	return c.Parsing.MaxFileSizeMB * 1024 * 1024
}

// DSN constructs the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Addr constructs the Redis address
func (c *CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig logs the configuration (hiding sensitive data)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.String("environment", c.Environment),
		slog.Float64("domain_start", c.Standardize.DomainStart),
		slog.Float64("domain_end", c.Standardize.DomainEnd),
		slog.Int("point_count", c.Standardize.PointCount),
		slog.Bool("constant_padding", c.Standardize.ConstantPadding),
		slog.Float64("reference_wavelength", c.Parsing.ReferenceWavelength),
		slog.Duration("decode_timeout", c.Parsing.DecodeTimeout),
		slog.Bool("strict", c.Parsing.Strict),
		slog.String("converter", c.Parsing.ConverterCommand),
		slog.String("output_dir", c.Storage.OutputDir),
		slog.Bool("database_enabled", c.Database.Enabled),
		slog.Bool("cache_enabled", c.Cache.Enabled),
	)

	if c.Database.Enabled {
		password := "[NOT SET]"
		if c.Database.Password != "" {
			password = "[CONFIGURED]"
		}
		logger.Info("database configured",
			slog.String("host", c.Database.Host),
			slog.Int("port", c.Database.Port),
			slog.String("database", c.Database.Database),
			slog.String("password", password))
	}
}
