package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indusense/testgen/internal/jobs"
	"github.com/indusense/testgen/internal/provider"
)

func TestJobHandlers_Lifecycle(t *testing.T) {
	env := newTestEnv(t, provider.NewMock(0))
	env.seedProject(t, "file-1")

	rec := env.do(http.MethodPost, "/api/jobs", map[string]interface{}{
		"project_id": "file-1",
		"test_types": []string{"fat", "Operational Qualification"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var started jobs.Job
	decodeBody(t, rec, &started)
	require.NotEmpty(t, started.ID)
	require.Len(t, started.Items, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := env.jobs.Wait(ctx, started.ID)
	require.NoError(t, err)

	rec = env.do(http.MethodGet, "/api/jobs/"+started.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var done jobs.Job
	decodeBody(t, rec, &done)
	assert.Equal(t, jobs.StatusComplete, done.Status)
	assert.Equal(t, "OQ", string(done.Items[1].TestType))
	require.NotNil(t, done.Items[0].Validation)
	assert.True(t, done.Items[0].Validation.Passed)
	assert.Len(t, env.metrics.rows, 2)

	rec = env.do(http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []jobs.Job
	decodeBody(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestJobHandlers_Stream(t *testing.T) {
	env := newTestEnv(t, provider.NewMock(0))

	rec := env.do(http.MethodPost, "/api/jobs", `{"project": `+projectJSON+`, "test_types": ["SAT"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var started jobs.Job
	decodeBody(t, rec, &started)

	rec = env.do(http.MethodGet, "/api/jobs/"+started.ID+"/stream", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	body := rec.Body.String()
	assert.Contains(t, body, "event: progress\n")
	assert.Contains(t, body, "event: done\n")
	assert.True(t, strings.HasSuffix(body, "\n\n"))
	assert.Contains(t, body, `"status":"complete"`)
}

func TestJobHandlers_Errors(t *testing.T) {
	env := newTestEnv(t, provider.NewMock(0))

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"missing project", http.MethodPost, "/api/jobs", `{"test_types": ["FAT"]}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad test type", http.MethodPost, "/api/jobs", `{"project": ` + projectJSON + `, "test_types": ["PQ"]}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown job", http.MethodGet, "/api/jobs/nope", nil, http.StatusNotFound, "NOT_FOUND"},
		{"unknown job stream", http.MethodGet, "/api/jobs/nope/stream", nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestJobHandlers_Disabled(t *testing.T) {
	h := NewJobHandler(&Dependencies{})
	e := echo.New()

	for _, fn := range []echo.HandlerFunc{h.HandleStartJob, h.HandleListJobs, h.HandleGetJob, h.HandleJobStream} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		err := fn(c)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	}
}
