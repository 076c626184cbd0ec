package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/config"
)

// New selects a backend. An explicit name wins; otherwise the presence of an
// API key selects openai and its absence selects the mock with a warning.
func New(name string, cfg *config.AppConfig, logger logrus.FieldLogger) (Provider, error) {
	if name == "" {
		name = cfg.Generation.Provider
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		if !cfg.HasCredential() {
			logger.Warn("No OpenAI API key configured, using mock provider")
			return newMockFromConfig(cfg), nil
		}
		return newOpenAIFromConfig(cfg, logger)
	case NameMock:
		return newMockFromConfig(cfg), nil
	case NameOpenAI:
		return newOpenAIFromConfig(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}

func newMockFromConfig(cfg *config.AppConfig) *Mock {
	return NewMock(time.Duration(cfg.Generation.MockLatencyMs) * time.Millisecond)
}

func newOpenAIFromConfig(cfg *config.AppConfig, logger logrus.FieldLogger) (*OpenAI, error) {
	return NewOpenAI(OpenAIOptions{
		APIKey:            cfg.OpenAI.APIKey,
		Model:             cfg.OpenAI.Model,
		BaseURL:           cfg.OpenAI.BaseURL,
		Temperature:       cfg.OpenAI.Temperature,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		Timeout:           cfg.RequestTimeout(),
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		Retry: Policy{
			MaxAttempts:  cfg.Retry.MaxRetries,
			InitialDelay: cfg.RetryDelay(),
			MaxDelay:     cfg.MaxRetryDelay(),
			Multiplier:   2,
			Jitter:       0.2,
		},
	}, logger)
}
