package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/crystal"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/dedup"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/ingest"
	"github.com/aimat-lab/xrdpattern-sub000/internal/core/services/standardize"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/cache"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/database"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/database/repositories"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/metrics"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/parsers"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/storage"
	"github.com/aimat-lab/xrdpattern-sub000/internal/infrastructure/table"
	"github.com/aimat-lab/xrdpattern-sub000/internal/pkg/config"
	"github.com/aimat-lab/xrdpattern-sub000/internal/pkg/logger"
)

// application holds the wired components shared by every subcommand
type application struct {
	cfg    *config.Config
	logger *slog.Logger

	registry     *parsers.FormatRegistry
	orchestrator *ingest.Orchestrator
	assembler    *ingest.Assembler
	standardizer *standardize.Standardizer
	storage      *storage.LocalStorage
	metrics      *metrics.Metrics

	db     *database.PostgresDB
	runs   *repositories.IngestRunRepository
	hashes *repositories.PatternHashRepository
	redis  *cache.RedisCache
}

func newApplication(ctx context.Context, cfg *config.Config, opts parsers.Options) (*application, error) {
	log := logger.Initialize(cfg.Environment, cfg.LogLevel)
	cfg.LogConfig(log)

	app := &application{cfg: cfg, logger: log, metrics: metrics.NewMetrics()}

	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database, logger.NewServiceLogger("database"))
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(); err != nil {
			db.Close()
			return nil, err
		}
		app.db = db
		app.runs = repositories.NewIngestRunRepository(db.DB, log)
		app.hashes = repositories.NewPatternHashRepository(db.DB, log)
	}

	var recordCache ingest.RecordCache
	if cfg.Cache.Enabled {
		redis, err := cache.NewRedisCache(ctx, &cfg.Cache, logger.NewServiceLogger("cache"))
		if err != nil {
			app.close()
			return nil, err
		}
		app.redis = redis
		recordCache = cache.NewRecordCache(redis, cfg.Cache.TTL, log)
	}

	var converter parsers.Converter
	if cfg.Parsing.ConverterCommand != "" {
		converter = parsers.NewExecConverter(cfg.Parsing.ConverterCommand)
	}

	parserConfig := parsers.DefaultParserConfig()
	parserConfig.MaxFileSize = cfg.MaxFileSizeBytes()
	parserConfig.ReferenceWavelength = cfg.Parsing.ReferenceWavelength

	labeler := crystal.NewLabeler(crystal.NewCatalog(), nil, log)
	app.registry = parsers.NewFormatRegistry(parserConfig, converter, labeler)

	app.orchestrator = ingest.NewOrchestrator(app.registry, ingest.OrchestratorConfig{
		Options:             opts,
		Timeout:             cfg.Parsing.DecodeTimeout,
		ReferenceWavelength: parserConfig.ReferenceWavelength,
	}, recordCache, app.metrics, logger.NewServiceLogger("orchestrator"))

	dedupConfig := dedup.DefaultConfig()
	var hashRepo dedup.HashRepository
	if app.hashes != nil {
		hashRepo = app.hashes
		dedupConfig.EnableLevel2 = true
	}
	deduplicator := dedup.NewService(dedupConfig, hashRepo, logger.NewServiceLogger("dedup"))

	app.assembler = ingest.NewAssembler(app.orchestrator, app.registry, deduplicator, logger.NewServiceLogger("assembler"))

	standardizer, err := standardize.NewStandardizer(standardize.Options{
		DomainStart:     cfg.Standardize.DomainStart,
		DomainEnd:       cfg.Standardize.DomainEnd,
		PointCount:      cfg.Standardize.PointCount,
		ConstantPadding: cfg.Standardize.ConstantPadding,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("invalid standardization settings: %w", err)
	}
	app.standardizer = standardizer

	store, err := storage.NewLocalStorage(&storage.LocalStorageConfig{BasePath: cfg.Storage.OutputDir}, log)
	if err != nil {
		app.close()
		return nil, err
	}
	app.storage = store

	return app, nil
}

func (a *application) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}

func (a *application) writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		a.logger.Warn("failed to write metrics", slog.String("path", path), "error", err)
	}
}

// extractOptions reads the shared decode flags
func extractOptions(orientation, xUnit string) (parsers.Options, error) {
	o, err := table.ParseOrientation(orientation)
	if err != nil {
		return parsers.Options{}, err
	}
	u, err := parsers.ParseXUnit(xUnit)
	if err != nil {
		return parsers.Options{}, err
	}
	return parsers.Options{Orientation: o, XUnit: u}, nil
}
