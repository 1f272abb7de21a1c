package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/classkit/internal/service"
	"github.com/classkit/pkg/config"
	"github.com/classkit/pkg/telemetry"
	"github.com/classkit/pkg/utils"
	"github.com/classkit/pkg/writer"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
	outputFile string

	logger   utils.Logger
	cfg      *config.Config
	svc      *service.Service
	shutdown telemetry.ShutdownFunc

	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "classkit",
	Short: "Inspect, compare and mirror compiled JVM classes",
	Long: `classkit reads compiled JVM classes from directories, archives, object
storage or a database, resolves their type hierarchy, compares method bodies
between versions and applies SRG or directive rename tables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["standalone"] == "true" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logger, err = buildLogger(cfg); err != nil {
			return err
		}

		shutdown, err = telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Telemetry disabled: %v", err)
		}

		svc, err = service.New(cfg, logger)
		if err != nil {
			return err
		}
		return svc.Initialize(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanup()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if cerr := cleanup(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./classkit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Write JSON results to a file; .gz or .zst compresses")

	binName := BinName()
	rootCmd.Example = `  # Describe a class found in the configured sources
  ` + binName + ` inspect com/example/Service

  # List every supertype and interface
  ` + binName + ` hierarchy com.example.Service --include-self

  # Compare method bodies against a previous build
  ` + binName + ` diff ./old-build.jar com/example/Service

  # Mirror all classes to storage as zstd objects
  ` + binName + ` export --storage --prefix mirror/`
}

// cleanup closes the service and flushes telemetry once.
func cleanup() error {
	var err error
	if svc != nil {
		err = svc.Close()
		svc = nil
	}
	if shutdown != nil {
		if serr := shutdown(context.Background()); serr != nil && logger != nil {
			logger.Warn("Failed to flush telemetry: %v", serr)
		}
		shutdown = nil
	}
	return err
}

func buildLogger(cfg *config.Config) (utils.Logger, error) {
	level := utils.ParseLogLevel(cfg.Log.Level)
	if verbose {
		level = utils.LevelDebug
	}
	if cfg.Log.OutputPath != "" {
		return utils.NewFileLogger(level, cfg.Log.OutputPath)
	}
	return utils.NewDefaultLogger(level, os.Stderr), nil
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// emit prints v as JSON when --json or --output is set, otherwise calls text.
func emit(v any, text func()) error {
	switch {
	case outputFile != "":
		result, err := writer.NewPrettyJSONWriter[any]().WriteToFile(v, outputFile)
		if err != nil {
			return err
		}
		logger.Info("Wrote %s (%d bytes, %s)", outputFile, result.CompressedSize, result.Codec)
		return nil
	case jsonOutput:
		return writer.NewPrettyJSONWriter[any]().Write(v, os.Stdout)
	default:
		text()
		return nil
	}
}
