// Package config provides YAML and environment based configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig represents the root configuration structure.
type AppConfig struct {
	Environment string `yaml:"environment"`

	OpenAI     OpenAIConfig     `yaml:"openai"`
	Generation GenerationConfig `yaml:"generation"`
	Retry      RetryConfig      `yaml:"retry"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Currency   CurrencyConfig   `yaml:"currency"`
	Logging    LoggingConfig    `yaml:"logging"`
	Jobs       JobsConfig       `yaml:"jobs"`
}

// OpenAIConfig contains text-generation backend settings.
// An empty APIKey selects the mock provider unless one is named explicitly.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// RequestsPerMinute throttles outbound calls. Zero disables throttling.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// GenerationConfig contains prompt and validation defaults.
type GenerationConfig struct {
	Provider           string `yaml:"provider"` // "", "mock" or "openai"
	DefaultTestType    string `yaml:"default_test_type"`
	PromptVersion      string `yaml:"prompt_version"`
	TemplateVersion    string `yaml:"template_version"`
	PromptsFile        string `yaml:"prompts_file"`
	EnableValidation   bool   `yaml:"enable_validation"`
	StrictValidation   bool   `yaml:"strict_validation"`
	SignalTypeFallback string `yaml:"signal_type_fallback"` // empty rejects unknown types
	MockLatencyMs      int    `yaml:"mock_latency_ms"`
	StrictSchema       bool   `yaml:"strict_schema"` // check JSON projects against the published schema
	WatchPrompts       bool   `yaml:"watch_prompts"` // reload prompts_file on change
}

// RetryConfig bounds the outbound generation call.
type RetryConfig struct {
	MaxRetries    int     `yaml:"max_retries"`
	RetryDelaySec float64 `yaml:"retry_delay_sec"`
	MaxDelaySec   float64 `yaml:"max_delay_sec"`
	TimeoutSec    int     `yaml:"timeout_sec"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                 int    `yaml:"port"`
	BindAddress          string `yaml:"bind_address"`
	EnableCORS           bool   `yaml:"enable_cors"`
	AllowOrigins         string `yaml:"allow_origins"`
	ReadTimeout          int    `yaml:"read_timeout_seconds"`
	WriteTimeout         int    `yaml:"write_timeout_seconds"`
	IdleTimeout          int    `yaml:"idle_timeout_seconds"`
	BodyLimit            string `yaml:"body_limit"`
	EnableRequestLogging bool   `yaml:"enable_request_logging"`
}

// StorageConfig contains directory settings.
type StorageConfig struct {
	DataDirectory     string `yaml:"data_directory"`
	ProjectsDirectory string `yaml:"projects_directory"`
	OutputDirectory   string `yaml:"output_directory"`
}

// MetricsConfig controls cost tracking and the metrics database.
type MetricsConfig struct {
	EnableCostTracking bool   `yaml:"enable_cost_tracking"`
	EnableMetricsDB    bool   `yaml:"enable_metrics_db"`
	MetricsDBPath      string `yaml:"metrics_db_path"`
}

// CurrencyConfig controls the USD to EUR rate cache.
type CurrencyConfig struct {
	RateURL      string  `yaml:"rate_url"`
	TTLHours     int     `yaml:"ttl_hours"`
	DefaultRate  float64 `yaml:"default_rate"`
	FetchTimeout int     `yaml:"fetch_timeout_seconds"`
}

// JobsConfig controls background batch generation.
type JobsConfig struct {
	MaxConcurrent   int `yaml:"max_concurrent"`
	RetentionHours  int `yaml:"retention_hours"`
	CleanupInterval int `yaml:"cleanup_interval_minutes"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the zero-configuration defaults: mock provider,
// prompt v1.1, FAT.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Environment: "development",
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   2000,
		},
		Generation: GenerationConfig{
			DefaultTestType:  "FAT",
			PromptVersion:    "v1.1",
			TemplateVersion:  "v1.0",
			EnableValidation: true,
		},
		Retry: RetryConfig{
			MaxRetries:    3,
			RetryDelaySec: 1.0,
			MaxDelaySec:   10.0,
			TimeoutSec:    30,
		},
		Server: ServerConfig{
			Port:                 8089,
			BindAddress:          "0.0.0.0",
			EnableCORS:           true,
			AllowOrigins:         "*",
			ReadTimeout:          30,
			WriteTimeout:         120,
			IdleTimeout:          120,
			BodyLimit:            "10M",
			EnableRequestLogging: true,
		},
		Storage: StorageConfig{
			DataDirectory:     "./data",
			ProjectsDirectory: "./data/projects",
			OutputDirectory:   "./output",
		},
		Metrics: MetricsConfig{
			EnableCostTracking: true,
			EnableMetricsDB:    true,
			MetricsDBPath:      "./output/metrics.duckdb",
		},
		Currency: CurrencyConfig{
			RateURL:      "https://open.er-api.com/v6/latest/USD",
			TTLHours:     24,
			DefaultRate:  0.95,
			FetchTimeout: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Jobs: JobsConfig{
			MaxConcurrent:   2,
			RetentionHours:  24,
			CleanupInterval: 30,
		},
	}
}

// LoadEnvFile loads a .env file into the process environment. A missing
// default ".env" is not an error.
func LoadEnvFile(file string) error {
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil {
		if file == ".env" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load env file '%s': %w", file, err)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides and validates the result. A missing file yields the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()
	baseDir := "."

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			baseDir = filepath.Dir(configPath)
		}
	}

	if err := config.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	config.resolvePaths(baseDir)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Test procedure generator configuration\n\n")
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides lets environment variables override file values.
func (c *AppConfig) applyEnvironmentOverrides() error {
	setString(&c.Environment, "APP_ENV")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Generation.Provider, "GENERATION_PROVIDER")
	setString(&c.Generation.DefaultTestType, "DEFAULT_TEST_TYPE")
	setString(&c.Generation.PromptVersion, "PROMPT_VERSION")
	setString(&c.Generation.TemplateVersion, "TEMPLATE_VERSION")
	setString(&c.Generation.PromptsFile, "PROMPTS_FILE")
	setString(&c.Generation.SignalTypeFallback, "SIGNAL_TYPE_FALLBACK")
	setString(&c.Storage.DataDirectory, "DATA_DIR")
	setString(&c.Storage.OutputDirectory, "OUTPUT_DIR")
	setString(&c.Metrics.MetricsDBPath, "METRICS_DB_PATH")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	var errs []error
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: OPENAI_TEMPERATURE: %v", ErrInvalidConfig, err))
		} else {
			c.OpenAI.Temperature = float32(f)
		}
	}
	errs = append(errs,
		setInt(&c.OpenAI.MaxTokens, "OPENAI_MAX_TOKENS"),
		setInt(&c.OpenAI.RequestsPerMinute, "OPENAI_REQUESTS_PER_MINUTE"),
		setInt(&c.Retry.MaxRetries, "MAX_RETRIES"),
		setFloat(&c.Retry.RetryDelaySec, "RETRY_DELAY_SEC"),
		setInt(&c.Retry.TimeoutSec, "TIMEOUT_SEC"),
		setInt(&c.Server.Port, "PORT"),
		setBool(&c.Generation.StrictValidation, "STRICT_VALIDATION"),
		setBool(&c.Generation.EnableValidation, "ENABLE_VALIDATION"),
		setBool(&c.Generation.StrictSchema, "STRICT_SCHEMA"),
		setBool(&c.Metrics.EnableMetricsDB, "ENABLE_METRICS_DB"),
		setBool(&c.Metrics.EnableCostTracking, "ENABLE_COST_TRACKING"),
	)
	return errors.Join(errs...)
}

// resolvePaths converts relative paths to absolute based on baseDir.
func (c *AppConfig) resolvePaths(baseDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.ProjectsDirectory,
		&c.Storage.OutputDirectory,
		&c.Metrics.MetricsDBPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			if abs, err := filepath.Abs(filepath.Join(baseDir, *p)); err == nil {
				*p = abs
			}
		}
	}
	if c.Generation.PromptsFile != "" && !filepath.IsAbs(c.Generation.PromptsFile) {
		c.Generation.PromptsFile = filepath.Join(baseDir, c.Generation.PromptsFile)
	}
}

// Validate checks value ranges.
func (c *AppConfig) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Environment {
	case "development", "staging", "production":
	default:
		fail("environment must be development, staging or production, got %q", c.Environment)
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		fail("openai.temperature must be within 0..2, got %v", c.OpenAI.Temperature)
	}
	if c.OpenAI.MaxTokens < 100 || c.OpenAI.MaxTokens > 4000 {
		fail("openai.max_tokens must be within 100..4000, got %d", c.OpenAI.MaxTokens)
	}
	if c.Retry.MaxRetries < 1 || c.Retry.MaxRetries > 10 {
		fail("retry.max_retries must be within 1..10, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.RetryDelaySec < 0.1 || c.Retry.RetryDelaySec > 60 {
		fail("retry.retry_delay_sec must be within 0.1..60, got %v", c.Retry.RetryDelaySec)
	}
	if c.Retry.TimeoutSec < 5 || c.Retry.TimeoutSec > 300 {
		fail("retry.timeout_sec must be within 5..300, got %d", c.Retry.TimeoutSec)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warning", "warn", "error", "critical", "fatal":
	default:
		fail("logging.level %q is not a known level", c.Logging.Level)
	}
	if c.Generation.PromptVersion == "" {
		fail("generation.prompt_version must not be empty")
	}
	if c.OpenAI.RequestsPerMinute < 0 {
		fail("openai.requests_per_minute must not be negative, got %d", c.OpenAI.RequestsPerMinute)
	}
	if c.Jobs.MaxConcurrent < 1 {
		fail("jobs.max_concurrent must be at least 1, got %d", c.Jobs.MaxConcurrent)
	}

	return errors.Join(errs...)
}

// GetServerAddr returns the server bind address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// HasCredential reports whether a provider credential is configured.
func (c *AppConfig) HasCredential() bool {
	return c.OpenAI.APIKey != ""
}

// RequestTimeout returns the per-attempt timeout of the generation call.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Retry.TimeoutSec) * time.Second
}

// RetryDelay returns the base backoff delay.
func (c *AppConfig) RetryDelay() time.Duration {
	return time.Duration(c.Retry.RetryDelaySec * float64(time.Second))
}

// MaxRetryDelay returns the backoff ceiling.
func (c *AppConfig) MaxRetryDelay() time.Duration {
	if c.Retry.MaxDelaySec <= 0 {
		return 10 * c.RetryDelay()
	}
	return time.Duration(c.Retry.MaxDelaySec * float64(time.Second))
}

// JobRetention returns how long finished jobs are kept.
func (c *AppConfig) JobRetention() time.Duration {
	return time.Duration(c.Jobs.RetentionHours) * time.Hour
}

// JobCleanupInterval returns the period of the job cleanup sweep.
func (c *AppConfig) JobCleanupInterval() time.Duration {
	if c.Jobs.CleanupInterval <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Jobs.CleanupInterval) * time.Minute
}

// EnsureDirectories creates all necessary directories.
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.ProjectsDirectory,
		c.Storage.OutputDirectory,
	}
	if c.Metrics.EnableMetricsDB && c.Metrics.MetricsDBPath != "" {
		dirs = append(dirs, filepath.Dir(c.Metrics.MetricsDBPath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func (c *AppConfig) String() string {
	keyDisplay := "(not set, mock provider)"
	if c.OpenAI.APIKey != "" {
		keyDisplay = "********"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Environment:        %s
OpenAI API Key:     %s
Model:              %s
Prompt Version:     %s
Default Test Type:  %s
Max Retries:        %d
Retry Delay:        %.1fs
Request Timeout:    %ds
Strict Validation:  %t
Metrics DB:         %s
Listen:             %s`,
		c.Environment,
		keyDisplay,
		c.OpenAI.Model,
		c.Generation.PromptVersion,
		c.Generation.DefaultTestType,
		c.Retry.MaxRetries,
		c.Retry.RetryDelaySec,
		c.Retry.TimeoutSec,
		c.Generation.StrictValidation,
		metricsDisplay(c.Metrics),
		c.GetServerAddr(),
	)
}

func metricsDisplay(m MetricsConfig) string {
	if !m.EnableMetricsDB {
		return "(disabled)"
	}
	return m.MetricsDBPath
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	*dst = b
	return nil
}
