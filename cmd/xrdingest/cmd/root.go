package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aimat-lab/xrdpattern-sub000/internal/pkg/config"
	"github.com/spf13/cobra"
)

var (
	app *application

	outputDir   string
	logLevel    string
	metricsFile string
	orientation string
	xUnit       string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xrdingest",
	Short: "Parse and standardize X-ray diffraction patterns",
	Long: `xrdingest reads XRD patterns in binary, tabular, CIF and vendor
formats, reports their quality and resamples them onto a common grid.

Settings come from the environment (and a .env file); flags override them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if outputDir != "" {
			cfg.Storage.OutputDir = outputDir
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		opts, err := extractOptions(orientation, xUnit)
		if err != nil {
			return err
		}

		app, err = newApplication(cmd.Context(), cfg, opts)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if app != nil {
		app.writeMetrics(metricsFile)
		app.close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides XRD_OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().StringVar(&orientation, "orientation", "auto", "Table orientation when the shape is ambiguous: auto, vertical, horizontal")
	rootCmd.PersistentFlags().StringVar(&xUnit, "x-unit", "auto", "Unit of tabular x axes: auto, 2theta, q")
}
