// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/config"
	"github.com/indusense/testgen/internal/jobs"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/render"
	"github.com/indusense/testgen/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Config     *config.AppConfig
	Store      storage.Store
	Parsers    *parser.Registry
	Prompts    *prompts.Registry
	Generators GeneratorFactory
	Metrics    MetricsStore  // nil disables recording
	Rates      RateSource    // nil disables EUR conversion
	Jobs       *jobs.Manager // nil disables batch jobs
	PDF        *render.PDFRenderer
	HTML       *render.HTMLRenderer
	Version    string
	Logger     logrus.FieldLogger
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Prompts  PromptHandler
	Projects ProjectHandler
	Generate GenerateHandler
	Render   RenderHandler
	Metrics  MetricsHandler
	Jobs     JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	if deps.PDF == nil {
		deps.PDF = render.NewPDFRenderer()
	}
	if deps.HTML == nil {
		deps.HTML = render.NewHTMLRenderer()
	}
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Config, deps.Prompts),
		Prompts:  NewPromptHandler(deps.Prompts),
		Projects: NewProjectHandler(deps.Store, deps.Parsers, deps.Logger),
		Generate: NewGenerateHandler(deps),
		Render:   NewRenderHandler(deps.PDF, deps.HTML),
		Metrics:  NewMetricsHandler(deps.Metrics, deps.Rates),
		Jobs:     NewJobHandler(deps),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Prompt registry
	apiGroup.GET("/prompts", handlers.Prompts.HandleListPrompts)
	apiGroup.GET("/prompts/:version", handlers.Prompts.HandleGetPrompt)

	// Project files
	projectGroup := apiGroup.Group("/projects")
	projectGroup.POST("", handlers.Projects.HandleUploadProject)
	projectGroup.POST("/binary", handlers.Projects.HandleUploadProjectBinary)
	projectGroup.GET("", handlers.Projects.HandleGetRecentProjects)
	projectGroup.GET("/:id", handlers.Projects.HandleGetProject)
	projectGroup.DELETE("/:id", handlers.Projects.HandleDeleteProject)
	projectGroup.PUT("/:id", handlers.Projects.HandleRenameProject)

	// Generation and validation
	apiGroup.POST("/generate", handlers.Generate.HandleGenerate)
	apiGroup.POST("/validate", handlers.Generate.HandleValidate)

	// Rendering
	apiGroup.POST("/render/pdf", handlers.Render.HandleRenderPDF)
	apiGroup.POST("/render/html", handlers.Render.HandleRenderHTML)

	// Batch jobs
	jobGroup := apiGroup.Group("/jobs")
	jobGroup.POST("", handlers.Jobs.HandleStartJob)
	jobGroup.GET("", handlers.Jobs.HandleListJobs)
	jobGroup.GET("/:id", handlers.Jobs.HandleGetJob)
	jobGroup.GET("/:id/stream", handlers.Jobs.HandleJobStream)

	// Metrics
	apiGroup.GET("/metrics", handlers.Metrics.HandleRecentMetrics)
	apiGroup.GET("/metrics/msgpack", handlers.Metrics.HandleRecentMetricsMsgpack)
	apiGroup.GET("/metrics/summary", handlers.Metrics.HandleMetricsSummary)
	apiGroup.GET("/currency", handlers.Metrics.HandleCurrency)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	e.HTTPErrorHandler = ErrorHandler(cfg.Environment == "development")

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Server.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
}
