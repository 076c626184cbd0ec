package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/indusense/testgen/internal/config"
	"github.com/indusense/testgen/internal/logging"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	verbose  bool

	rootCmd = &cobra.Command{
		Use:   "testgen",
		Short: "Generate and validate industrial test procedures",
		Long: `testgen turns a project description (system, signals, requirements) into
FAT, SAT, IQ and OQ test procedure documents using a text-generation
backend, and checks the result for coverage, completeness and compliance.

Without an OpenAI API key the deterministic mock backend is used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFile(envFile)
		},
	}
)

// errValidationFailed makes the process exit non-zero when --fail-on-errors
// is set and a document failed validation.
var errValidationFailed = errors.New("validation failed")

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "testgen.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to a .env file (default: .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newGenerateCmd(),
		newValidateCmd(),
		newPromptsCmd(),
		newSchemaCmd(),
		newMCPCmd(),
		newShowConfigCmd(),
		newVersionCmd(),
	)
}

// loadEnvFile loads an explicit env file, or .env when it exists.
func loadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the configuration and builds the logger from it and the
// logging flags.
func loadConfig() (*config.AppConfig, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), nil
}
