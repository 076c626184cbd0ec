package cmd

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/api"
	"github.com/indusense/testgen/internal/config"
	"github.com/indusense/testgen/internal/currency"
	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/jobs"
	"github.com/indusense/testgen/internal/metrics"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/provider"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg     *config.AppConfig
	logger  *logrus.Logger
	parsers *parser.Registry
	prompts *prompts.Registry
	metrics *metrics.Store      // nil when disabled or unavailable
	rates   *currency.Converter // nil when cost tracking is off

	mu   sync.Mutex
	gens map[string]*generator.Generator
}

// newApp loads configuration and builds the registries. The metrics database
// is only opened when withMetrics is set.
func newApp(withMetrics bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	parsers, err := parser.NewRegistry(parser.Options{
		SignalTypeFallback: cfg.Generation.SignalTypeFallback,
		StrictSchema:       cfg.Generation.StrictSchema,
	}, logger)
	if err != nil {
		return nil, err
	}

	registry := prompts.NewRegistry(logger)
	if cfg.Generation.PromptsFile != "" {
		if err := registry.LoadFile(cfg.Generation.PromptsFile); err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		parsers: parsers,
		prompts: registry,
		gens:    make(map[string]*generator.Generator),
	}

	if withMetrics && cfg.Metrics.EnableMetricsDB {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		store, err := metrics.Open(cfg.Metrics.MetricsDBPath, logger)
		if err != nil {
			logger.WithError(err).Warn("Metrics database unavailable, metrics disabled")
		} else {
			a.metrics = store
		}
	}

	if cfg.Metrics.EnableCostTracking {
		a.rates = currency.New(currency.Options{
			URL:          cfg.Currency.RateURL,
			TTL:          time.Duration(cfg.Currency.TTLHours) * time.Hour,
			DefaultRate:  cfg.Currency.DefaultRate,
			FetchTimeout: time.Duration(cfg.Currency.FetchTimeout) * time.Second,
		}, logger)
	}

	return a, nil
}

// generator returns the generator for a provider name, building it once so
// retry and rate-limit state are shared between callers.
func (a *app) generator(name string) (*generator.Generator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if g, ok := a.gens[name]; ok {
		return g, nil
	}
	backend, err := provider.New(name, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	g := generator.New(a.prompts, backend, generator.Options{
		PromptVersion:   a.cfg.Generation.PromptVersion,
		TemplateVersion: a.cfg.Generation.TemplateVersion,
	}, a.logger)
	a.gens[name] = g
	return g, nil
}

// metricsStore returns the store as an interface that is nil when disabled.
func (a *app) metricsStore() api.MetricsStore {
	if a.metrics == nil {
		return nil
	}
	return a.metrics
}

func (a *app) recorder() jobs.Recorder {
	if a.metrics == nil {
		return nil
	}
	return a.metrics
}

func (a *app) rateSource() api.RateSource {
	if a.rates == nil {
		return nil
	}
	return a.rates
}

func (a *app) Close() {
	if a.metrics != nil {
		if err := a.metrics.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close metrics database")
		}
	}
}
