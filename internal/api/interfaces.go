// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/currency"
	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/metrics"
	"github.com/indusense/testgen/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// PromptHandler exposes the prompt registry
type PromptHandler interface {
	HandleListPrompts(c echo.Context) error
	HandleGetPrompt(c echo.Context) error
}

// ProjectHandler handles project file uploads
type ProjectHandler interface {
	HandleUploadProject(c echo.Context) error
	HandleUploadProjectBinary(c echo.Context) error
	HandleGetRecentProjects(c echo.Context) error
	HandleGetProject(c echo.Context) error
	HandleDeleteProject(c echo.Context) error
	HandleRenameProject(c echo.Context) error
}

// GenerateHandler handles generation and validation
type GenerateHandler interface {
	HandleGenerate(c echo.Context) error
	HandleValidate(c echo.Context) error
}

// RenderHandler converts procedure markdown to documents
type RenderHandler interface {
	HandleRenderPDF(c echo.Context) error
	HandleRenderHTML(c echo.Context) error
}

// MetricsHandler exposes recorded generation metrics
type MetricsHandler interface {
	HandleRecentMetrics(c echo.Context) error
	HandleRecentMetricsMsgpack(c echo.Context) error
	HandleMetricsSummary(c echo.Context) error
	HandleCurrency(c echo.Context) error
}

// JobHandler runs batch generations in the background
type JobHandler interface {
	HandleStartJob(c echo.Context) error
	HandleListJobs(c echo.Context) error
	HandleGetJob(c echo.Context) error
	HandleJobStream(c echo.Context) error
}

// MetricsStore defines the metrics persistence used by the handlers.
// This allows mocking in tests
type MetricsStore interface {
	Record(ctx context.Context, m models.GenerationMetrics) (string, error)
	Recent(ctx context.Context, limit int) ([]models.GenerationMetrics, error)
	Summary(ctx context.Context) (*metrics.Summary, error)
}

// RateSource converts USD to EUR.
type RateSource interface {
	Quote(ctx context.Context) currency.Quote
	ToEUR(ctx context.Context, usd float64) (float64, currency.Quote)
}

// GeneratorFactory returns a generator for the named provider. An empty
// name selects the configured default.
type GeneratorFactory func(providerName string) (*generator.Generator, error)

var (
	_ MetricsStore = (*metrics.Store)(nil)
	_ RateSource   = (*currency.Converter)(nil)
)
