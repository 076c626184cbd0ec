// handlers_prompts.go - Prompt registry handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/prompts"
)

// PromptHandlerImpl implements the PromptHandler interface
type PromptHandlerImpl struct {
	registry *prompts.Registry
}

// NewPromptHandler creates a new prompt handler
func NewPromptHandler(registry *prompts.Registry) PromptHandler {
	return &PromptHandlerImpl{registry: registry}
}

// HandleListPrompts returns every registered version sorted by name
func (h *PromptHandlerImpl) HandleListPrompts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"default":  prompts.DefaultVersion,
		"versions": h.registry.Versions(),
	})
}

// HandleGetPrompt returns one version including its template text
func (h *PromptHandlerImpl) HandleGetPrompt(c echo.Context) error {
	version := c.Param("version")
	if version == "" {
		return NewValidationError("version")
	}

	info, err := h.registry.Info(version)
	if err != nil {
		return NewNotFoundError("prompt version", version)
	}
	text, err := h.registry.Template(version)
	if err != nil {
		return NewNotFoundError("prompt version", version)
	}

	return c.JSON(http.StatusOK, promptResponse{VersionInfo: info, Template: text})
}

type promptResponse struct {
	prompts.VersionInfo
	Template string `json:"template"`
}
