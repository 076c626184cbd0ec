// handlers_projects.go - Project file upload handlers
package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/storage"
	"github.com/indusense/testgen/internal/validation"
)

const defaultRecentLimit = 20

// ProjectHandlerImpl implements the ProjectHandler interface
type ProjectHandlerImpl struct {
	store   storage.Store
	parsers *parser.Registry
	logger  logrus.FieldLogger
}

// NewProjectHandler creates a new project handler instance
func NewProjectHandler(store storage.Store, parsers *parser.Registry, logger logrus.FieldLogger) ProjectHandler {
	return &ProjectHandlerImpl{
		store:   store,
		parsers: parsers,
		logger:  logger,
	}
}

// HandleUploadProject accepts a project file as base64 JSON, decodes it and
// saves it to storage
func (h *ProjectHandlerImpl) HandleUploadProject(c echo.Context) error {
	var req uploadProjectRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	return h.save(c, req.Name, decoded)
}

// HandleUploadProjectBinary accepts a raw project file (multipart/form-data)
func (h *ProjectHandlerImpl) HandleUploadProjectBinary(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	return h.save(c, file.Filename, data)
}

func (h *ProjectHandlerImpl) save(c echo.Context, name string, data []byte) error {
	project, err := h.parsers.LoadBytes(name, data)
	if err != nil {
		return FromDomainError(err)
	}

	info, err := h.store.Save(name, parser.DetectFormat(name, data), bytes.NewReader(data), project)
	if err != nil {
		return NewInternalError("failed to save project", err)
	}

	h.logger.WithFields(logrus.Fields{
		"file_id":    info.ID,
		"project_id": project.ID,
		"signals":    info.SignalCount,
	}).Info("Stored project file")

	return c.JSON(http.StatusCreated, projectResponse{
		ProjectInfo: info,
		Project:     project,
		Validation:  validation.ProjectValidator{}.Validate(project),
	})
}

// HandleGetRecentProjects returns the most recently uploaded project files
func (h *ProjectHandlerImpl) HandleGetRecentProjects(c echo.Context) error {
	limit := defaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list projects", err)
	}
	if files == nil {
		files = []*models.ProjectInfo{}
	}

	return c.JSON(http.StatusOK, files)
}

// HandleGetProject returns metadata and the decoded project for a file
func (h *ProjectHandlerImpl) HandleGetProject(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return h.lookupError(id, err)
	}
	project, err := h.store.Project(id)
	if err != nil {
		return h.lookupError(id, err)
	}

	return c.JSON(http.StatusOK, projectResponse{
		ProjectInfo: info,
		Project:     project,
		Validation:  validation.ProjectValidator{}.Validate(project),
	})
}

// HandleDeleteProject deletes a project file
func (h *ProjectHandlerImpl) HandleDeleteProject(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.store.Delete(id); err != nil {
		return h.lookupError(id, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleRenameProject updates the display name of a project file
func (h *ProjectHandlerImpl) HandleRenameProject(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	var req renameProjectRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if req.Name == "" {
		return NewValidationError("name")
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return h.lookupError(id, err)
	}

	return c.JSON(http.StatusOK, info)
}

func (h *ProjectHandlerImpl) lookupError(id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("project", id)
	}
	return NewInternalError("project storage failed", err)
}

// Request/Response types

type uploadProjectRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded JSON or YAML
}

func (r *uploadProjectRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

type renameProjectRequest struct {
	Name string `json:"name"`
}

type projectResponse struct {
	*models.ProjectInfo
	Project    *models.Project         `json:"project"`
	Validation models.ValidationResult `json:"validation"`
}
