package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/logging"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/testutil"
)

func newProjectHandler(t *testing.T, store *testutil.MockStorage) ProjectHandler {
	t.Helper()
	parsers, err := parser.NewRegistry(parser.Options{}, logging.Discard())
	if err != nil {
		t.Fatalf("parser registry: %v", err)
	}
	return NewProjectHandler(store, parsers, logging.Discard())
}

func TestProjectHandler_HandleUploadProject(t *testing.T) {
	tests := []struct {
		name       string
		request    uploadProjectRequest
		wantStatus int
		wantErr    bool
		errCode    string
	}{
		{
			name: "valid json project",
			request: uploadProjectRequest{
				Name: "pilot.json",
				Data: base64.StdEncoding.EncodeToString([]byte(projectJSON)),
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "valid yaml project",
			request: uploadProjectRequest{
				Name: "pilot.yaml",
				Data: base64.StdEncoding.EncodeToString([]byte("project_id: P-Y\nsystem: Rig\nsignals:\n  - id: F-1\n    type: flow\n    range: 0-5\n")),
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "empty name",
			request: uploadProjectRequest{
				Data: base64.StdEncoding.EncodeToString([]byte(projectJSON)),
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "empty data",
			request:    uploadProjectRequest{Name: "p.json"},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "invalid base64",
			request:    uploadProjectRequest{Name: "p.json", Data: "not-valid-base64!!!"},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "BAD_REQUEST",
		},
		{
			name: "unparseable project",
			request: uploadProjectRequest{
				Name: "p.json",
				Data: base64.StdEncoding.EncodeToString([]byte(`{"project_id": `)),
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			store := testutil.NewMockStorage()
			handler := newProjectHandler(t, store)

			e := echo.New()
			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			// Execute
			err := handler.HandleUploadProject(c)

			// Assert
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
					return
				}
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Errorf("expected APIError, got %T", err)
					return
				}
				if apiErr.Status != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response projectResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Errorf("failed to unmarshal response: %v", err)
				return
			}
			if response.ProjectInfo == nil || response.ID == "" {
				t.Fatal("expected non-empty ID in response")
			}
			if response.Name != tt.request.Name {
				t.Errorf("expected name %s, got %s", tt.request.Name, response.Name)
			}
			if response.Project == nil || response.SignalCount != len(response.Project.Signals) {
				t.Errorf("expected decoded project with matching signal count")
			}
			if _, err := store.Project(response.ID); err != nil {
				t.Errorf("project not stored: %v", err)
			}
		})
	}
}

func TestProjectHandler_HandleUploadProjectBinary(t *testing.T) {
	store := testutil.NewMockStorage()
	handler := newProjectHandler(t, store)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "pilot.json")
	part.Write([]byte(projectJSON))
	writer.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/projects/binary", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandleUploadProjectBinary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var response projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.ProjectID != "P-API" {
		t.Errorf("expected project id P-API, got %s", response.ProjectID)
	}
	if response.Format != "json" {
		t.Errorf("expected json format, got %s", response.Format)
	}
	if !response.Validation.Passed {
		t.Errorf("expected project to pass validation: %v", response.Validation.Errors)
	}
}

func TestProjectHandler_HandleGetRecentProjects(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		query     string
		wantCount int
		wantErr   bool
	}{
		{name: "empty storage", count: 0, wantCount: 0},
		{name: "few projects", count: 3, wantCount: 3},
		{name: "default limit", count: 30, wantCount: defaultRecentLimit},
		{name: "explicit limit", count: 10, query: "?limit=4", wantCount: 4},
		{name: "bad limit", count: 1, query: "?limit=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			for i := 0; i < tt.count; i++ {
				store.AddProject(fmt.Sprintf("id-%d", i), fmt.Sprintf("p%d.json", i), "json", nil, testutil.SingleSignalProject())
			}
			handler := newProjectHandler(t, store)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/projects"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.HandleGetRecentProjects(c)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var response []map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if len(response) != tt.wantCount {
				t.Errorf("expected %d projects, got %d", tt.wantCount, len(response))
			}
		})
	}
}

func TestProjectHandler_GetRenameDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedProject(t, "file-1")

	rec := env.do(http.MethodGet, "/api/projects/file-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got projectResponse
	decodeBody(t, rec, &got)
	if got.Project.ID != "P-TEST" {
		t.Errorf("expected project P-TEST, got %s", got.Project.ID)
	}

	rec = env.do(http.MethodPut, "/api/projects/file-1", map[string]string{"name": "renamed.json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d", rec.Code)
	}
	info, _ := env.store.Get("file-1")
	if info.Name != "renamed.json" {
		t.Errorf("expected renamed.json, got %s", info.Name)
	}

	rec = env.do(http.MethodPut, "/api/projects/file-1", map[string]string{"name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("rename without name: expected 400, got %d", rec.Code)
	}

	rec = env.do(http.MethodDelete, "/api/projects/file-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = env.do(method, "/api/projects/file-1", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", method, rec.Code)
		}
	}
}
