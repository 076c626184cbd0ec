package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/indusense/testgen/internal/config"
	"github.com/indusense/testgen/internal/currency"
	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/jobs"
	"github.com/indusense/testgen/internal/logging"
	"github.com/indusense/testgen/internal/metrics"
	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/provider"
	"github.com/indusense/testgen/internal/testutil"
)

const projectJSON = `{
  "project_id": "P-API",
  "system": "Fermenter",
  "environment": "Lab",
  "signals": [
    {"id": "TT-101", "type": "TEMPERATURE", "range": "0-100 C"},
    {"id": "PT-201", "type": "PRESSURE", "range": "0-10 bar"}
  ],
  "requirements": [
    {"id": "R1", "text": "Log every reading", "priority": "HIGH"}
  ]
}`

// fakeMetrics records rows in memory.
type fakeMetrics struct {
	mu   sync.Mutex
	rows []models.GenerationMetrics
	err  error
}

func (f *fakeMetrics) Record(ctx context.Context, m models.GenerationMetrics) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, m)
	return "row", nil
}

func (f *fakeMetrics) Recent(ctx context.Context, limit int) ([]models.GenerationMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rows := f.rows
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeMetrics) Summary(ctx context.Context) (*metrics.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sum := &metrics.Summary{Count: int64(len(f.rows)), ByModel: []metrics.ModelSummary{}}
	for _, r := range f.rows {
		sum.TotalCostUSD += r.CostUSD
	}
	return sum, nil
}

// fixedRate always quotes the same rate.
type fixedRate float64

func (r fixedRate) Quote(ctx context.Context) currency.Quote {
	return currency.Quote{Rate: float64(r), Source: currency.SourceFallback}
}

func (r fixedRate) ToEUR(ctx context.Context, usd float64) (float64, currency.Quote) {
	return usd * float64(r), r.Quote(ctx)
}

type testEnv struct {
	echo    *echo.Echo
	store   *testutil.MockStorage
	metrics *fakeMetrics
	jobs    *jobs.Manager
	cfg     *config.AppConfig
}

// newTestEnv wires every handler to in-memory collaborators. backend is used
// for every provider name except "broken", which the factory rejects.
func newTestEnv(t *testing.T, backend provider.Provider) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	logger := logging.Discard()
	parsers, err := parser.NewRegistry(parser.Options{}, logger)
	require.NoError(t, err)
	registry := prompts.NewRegistry(logger)

	env := &testEnv{
		echo:    echo.New(),
		store:   testutil.NewMockStorage(),
		metrics: &fakeMetrics{},
		cfg:     cfg,
	}

	factory := func(name string) (*generator.Generator, error) {
		if name == "broken" {
			return nil, provider.ErrUnknownProvider
		}
		return generator.New(registry, backend, generator.Options{
			TemplateVersion: cfg.Generation.TemplateVersion,
			Clock:           func() time.Time { return time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC) },
		}, logger), nil
	}

	env.jobs = jobs.NewManager(jobs.GeneratorFunc(factory), jobs.Options{Validate: true, Recorder: env.metrics}, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.jobs.Shutdown(ctx)
	})

	handlers := NewHandlers(&Dependencies{
		Config:     cfg,
		Store:      env.store,
		Parsers:    parsers,
		Prompts:    registry,
		Generators: factory,
		Metrics:    env.metrics,
		Rates:      fixedRate(0.5),
		Jobs:       env.jobs,
		Version:    "test",
		Logger:     logger,
	})
	env.echo.HTTPErrorHandler = ErrorHandler(true)
	RegisterRoutes(env.echo, handlers)
	return env
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	return apiErr
}

func (e *testEnv) seedProject(t *testing.T, id string) *models.Project {
	t.Helper()
	p := testutil.ProjectWithSignals("TT-101", "PT-201")
	e.store.AddProject(id, "seed.json", "json", []byte("{}"), p)
	return p
}
