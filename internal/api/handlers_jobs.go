// handlers_jobs.go - Batch generation job handlers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/jobs"
	"github.com/indusense/testgen/internal/models"
)

// JobHandlerImpl implements the JobHandler interface
type JobHandlerImpl struct {
	projectResolver
	manager      *jobs.Manager
	pollInterval time.Duration
}

// NewJobHandler creates a new job handler
func NewJobHandler(deps *Dependencies) JobHandler {
	return &JobHandlerImpl{
		projectResolver: projectResolver{store: deps.Store, parsers: deps.Parsers},
		manager:         deps.Jobs,
		pollInterval:    250 * time.Millisecond,
	}
}

// HandleStartJob queues a batch and responds 202 with the job
func (h *JobHandlerImpl) HandleStartJob(c echo.Context) error {
	if h.manager == nil {
		return NewServiceUnavailableError("batch jobs are disabled")
	}

	var req startJobRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	project, err := h.resolveProject(req.projectSource)
	if err != nil {
		return err
	}

	testTypes := make([]models.TestType, 0, len(req.TestTypes))
	for _, raw := range req.TestTypes {
		tt, err := models.ParseTestType(raw)
		if err != nil {
			return NewBadRequestError("unsupported test type", err)
		}
		testTypes = append(testTypes, tt)
	}

	job, err := h.manager.Start(jobs.Request{
		Project:       project,
		TestTypes:     testTypes,
		PromptVersion: req.PromptVersion,
		Provider:      req.Provider,
	})
	if err != nil {
		return FromDomainError(err)
	}

	return c.JSON(http.StatusAccepted, job)
}

// HandleListJobs returns all tracked jobs, newest first
func (h *JobHandlerImpl) HandleListJobs(c echo.Context) error {
	if h.manager == nil {
		return NewServiceUnavailableError("batch jobs are disabled")
	}
	return c.JSON(http.StatusOK, h.manager.List())
}

// HandleGetJob returns one job
func (h *JobHandlerImpl) HandleGetJob(c echo.Context) error {
	if h.manager == nil {
		return NewServiceUnavailableError("batch jobs are disabled")
	}
	id := c.Param("id")
	job, ok := h.manager.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id)
	}
	return c.JSON(http.StatusOK, job)
}

// HandleJobStream streams job progress via Server-Sent Events until the job
// finishes or the client goes away.
func (h *JobHandlerImpl) HandleJobStream(c echo.Context) error {
	if h.manager == nil {
		return NewServiceUnavailableError("batch jobs are disabled")
	}
	id := c.Param("id")
	if _, ok := h.manager.GetJob(id); !ok {
		return NewNotFoundError("job", id)
	}

	// Set SSE headers
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var lastProgress float64 = -1
	var lastStatus jobs.Status
	for {
		job, ok := h.manager.GetJob(id)
		if !ok {
			writeEvent(c, "error", map[string]string{"error": "job not found"})
			return nil
		}

		if job.Progress != lastProgress || job.Status != lastStatus {
			writeEvent(c, "progress", jobProgress{
				ID:       job.ID,
				Status:   job.Status,
				Progress: job.Progress,
				Stage:    job.Stage,
				Error:    job.Error,
			})
			lastProgress, lastStatus = job.Progress, job.Status
		}

		if job.Status.Done() {
			writeEvent(c, "done", job)
			return nil
		}

		select {
		case <-c.Request().Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}

func writeEvent(c echo.Context, event string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, data)
	c.Response().Flush()
}

// Request/Response types

type startJobRequest struct {
	projectSource
	TestTypes     []string `json:"test_types"`
	PromptVersion string   `json:"prompt_version"`
	Provider      string   `json:"provider"`
}

type jobProgress struct {
	ID       string      `json:"id"`
	Status   jobs.Status `json:"status"`
	Progress float64     `json:"progress"`
	Stage    string      `json:"stage"`
	Error    string      `json:"error,omitempty"`
}
