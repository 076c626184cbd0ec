package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/logging"
	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/provider"
	"github.com/indusense/testgen/internal/testutil"
	"github.com/indusense/testgen/internal/validation"
)

type memRecorder struct {
	mu   sync.Mutex
	rows []models.GenerationMetrics
}

func (r *memRecorder) Record(ctx context.Context, m models.GenerationMetrics) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, m)
	return "id", nil
}

func (r *memRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func generatorsFor(backend provider.Provider) GeneratorFunc {
	logger := logging.Discard()
	registry := prompts.NewRegistry(logger)
	return func(name string) (*generator.Generator, error) {
		if name == "broken" {
			return nil, provider.ErrUnknownProvider
		}
		return generator.New(registry, backend, generator.Options{TemplateVersion: "v1.0"}, logger), nil
	}
}

func waitDone(t *testing.T, m *Manager, id string) Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := m.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestManager_RunsEveryTestTypeByDefault(t *testing.T) {
	rec := &memRecorder{}
	m := NewManager(generatorsFor(provider.NewMock(0)), Options{MaxConcurrent: 2, Validate: true, Recorder: rec}, logging.Discard())

	job, err := m.Start(Request{Project: testutil.ProjectWithSignals("TT-1", "PT-2")})
	require.NoError(t, err)
	assert.Equal(t, "P-TEST", job.ProjectID)
	require.Len(t, job.Items, 4)

	done := waitDone(t, m, job.ID)
	assert.Equal(t, StatusComplete, done.Status)
	assert.Equal(t, 100.0, done.Progress)
	require.NotNil(t, done.CompletedAt)

	for i, it := range done.Items {
		assert.Equal(t, models.AllTestTypes()[i], it.TestType)
		assert.Equal(t, StatusComplete, it.Status)
		require.NotNil(t, it.Procedure)
		assert.Equal(t, it.TestType, it.Procedure.TestType)
		require.NotNil(t, it.Validation)
		assert.Equal(t, 100.0, it.Validation.CoveragePct)
	}
	assert.Equal(t, 4, rec.len())
}

func TestManager_SelectedTypesDeduplicated(t *testing.T) {
	m := NewManager(generatorsFor(provider.NewMock(0)), Options{}, logging.Discard())

	job, err := m.Start(Request{
		Project:   testutil.SingleSignalProject(),
		TestTypes: []models.TestType{models.TestTypeIQ, models.TestTypeIQ, models.TestTypeOQ},
	})
	require.NoError(t, err)

	done := waitDone(t, m, job.ID)
	require.Len(t, done.Items, 2)
	assert.Equal(t, models.TestTypeIQ, done.Items[0].TestType)
	assert.Nil(t, done.Items[0].Validation, "validation disabled")
}

func TestManager_InvalidProjectRejectedUpFront(t *testing.T) {
	backend := testutil.NewScriptedProvider("unused", "gpt-4o-mini")
	m := NewManager(generatorsFor(backend), Options{}, logging.Discard())

	_, err := m.Start(Request{Project: testutil.ProjectWithSignals("A", "A")})
	assert.ErrorIs(t, err, validation.ErrInvalidProject)

	_, err = m.Start(Request{})
	assert.ErrorIs(t, err, validation.ErrInvalidProject)

	assert.Empty(t, m.List())
	assert.Equal(t, 0, backend.Calls())
}

func TestManager_AllItemsFail(t *testing.T) {
	backend := testutil.NewFailingProvider(errors.New("status code: 401"))
	m := NewManager(generatorsFor(backend), Options{}, logging.Discard())

	job, err := m.Start(Request{Project: testutil.SingleSignalProject(), TestTypes: []models.TestType{models.TestTypeFAT, models.TestTypeSAT}})
	require.NoError(t, err)

	done := waitDone(t, m, job.ID)
	assert.Equal(t, StatusError, done.Status)
	assert.Equal(t, "all 2 generations failed", done.Error)
	for _, it := range done.Items {
		assert.Equal(t, StatusError, it.Status)
		assert.Contains(t, it.Error, "401")
	}
}

func TestManager_UnknownProvider(t *testing.T) {
	m := NewManager(generatorsFor(provider.NewMock(0)), Options{}, logging.Discard())

	job, err := m.Start(Request{Project: testutil.SingleSignalProject(), Provider: "broken"})
	require.NoError(t, err)

	done := waitDone(t, m, job.ID)
	assert.Equal(t, StatusError, done.Status)
	assert.Contains(t, done.Error, "unknown provider")
}

func TestManager_CleanupOldJobs(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	m := NewManager(generatorsFor(provider.NewMock(0)), Options{Clock: clock}, logging.Discard())

	job, err := m.Start(Request{Project: testutil.SingleSignalProject(), TestTypes: []models.TestType{models.TestTypeFAT}})
	require.NoError(t, err)
	waitDone(t, m, job.ID)

	assert.Equal(t, 0, m.CleanupOldJobs(time.Hour))

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	assert.Equal(t, 1, m.CleanupOldJobs(time.Hour))
	_, ok := m.GetJob(job.ID)
	assert.False(t, ok)
}

func TestManager_Shutdown(t *testing.T) {
	m := NewManager(generatorsFor(provider.NewMock(0)), Options{}, logging.Discard())

	job, err := m.Start(Request{Project: testutil.SingleSignalProject(), TestTypes: []models.TestType{models.TestTypeFAT}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	got, ok := m.GetJob(job.ID)
	require.True(t, ok)
	assert.True(t, got.Status.Done())

	_, err = m.Start(Request{Project: testutil.SingleSignalProject()})
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestManager_ListNewestFirst(t *testing.T) {
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	m := NewManager(generatorsFor(provider.NewMock(0)), Options{Clock: clock}, logging.Discard())

	first, err := m.Start(Request{Project: testutil.SingleSignalProject(), TestTypes: []models.TestType{models.TestTypeFAT}})
	require.NoError(t, err)
	waitDone(t, m, first.ID)
	second, err := m.Start(Request{Project: testutil.SingleSignalProject(), TestTypes: []models.TestType{models.TestTypeSAT}})
	require.NoError(t, err)
	waitDone(t, m, second.ID)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
