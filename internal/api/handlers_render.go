// handlers_render.go - Document rendering handlers
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/render"
)

// RenderHandlerImpl implements the RenderHandler interface
type RenderHandlerImpl struct {
	pdf  *render.PDFRenderer
	html *render.HTMLRenderer
}

// NewRenderHandler creates a new render handler
func NewRenderHandler(pdf *render.PDFRenderer, html *render.HTMLRenderer) RenderHandler {
	return &RenderHandlerImpl{pdf: pdf, html: html}
}

// HandleRenderPDF returns the procedure content as a PDF attachment
func (h *RenderHandlerImpl) HandleRenderPDF(c echo.Context) error {
	req, err := bindRenderRequest(c)
	if err != nil {
		return err
	}

	label := req.ProjectID
	if label == "" {
		label = "procedure"
	}

	data, err := h.pdf.Render(req.Content, label)
	if err != nil {
		return FromDomainError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.pdf"`, sanitizeFilename(label)))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// HandleRenderHTML returns the procedure content as an HTML fragment
func (h *RenderHandlerImpl) HandleRenderHTML(c echo.Context) error {
	req, err := bindRenderRequest(c)
	if err != nil {
		return err
	}

	data, err := h.html.Render(req.Content)
	if err != nil {
		return FromDomainError(err)
	}

	return c.HTMLBlob(http.StatusOK, data)
}

func bindRenderRequest(c echo.Context) (*renderRequest, error) {
	var req renderRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, NewValidationError("content")
	}
	return &req, nil
}

// sanitizeFilename keeps letters, digits, dash, underscore and dot.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

type renderRequest struct {
	Content   string `json:"content"`
	ProjectID string `json:"project_id"`
}
