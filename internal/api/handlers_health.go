// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/config"
	"github.com/indusense/testgen/internal/prompts"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	cfg     *config.AppConfig
	prompts *prompts.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, cfg *config.AppConfig, registry *prompts.Registry) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		cfg:     cfg,
		prompts: registry,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.cfg != nil {
		body["model"] = h.cfg.OpenAI.Model
		body["credential_configured"] = h.cfg.HasCredential()
		body["default_prompt_version"] = h.cfg.Generation.PromptVersion
	}
	if h.prompts != nil {
		body["prompt_versions"] = len(h.prompts.Versions())
	}
	return c.JSON(http.StatusOK, body)
}
