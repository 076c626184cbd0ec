package generator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indusense/testgen/internal/logging"
	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/provider"
	"github.com/indusense/testgen/internal/testutil"
	"github.com/indusense/testgen/internal/validation"
)

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := t
		t = t.Add(step)
		return now
	}
}

func newTestGenerator(backend provider.Provider) *Generator {
	return New(prompts.NewRegistry(logging.Discard()), backend, Options{
		TemplateVersion: "v1.0",
		Clock:           steppingClock(1234567 * time.Microsecond),
	}, logging.Discard())
}

func TestGenerate_MockScenario(t *testing.T) {
	g := newTestGenerator(provider.NewMock(0))

	res, err := g.Generate(context.Background(), testutil.SingleSignalProject(), models.TestTypeFAT, "")
	require.NoError(t, err)

	assert.Contains(t, res.Content, "S1")
	assert.Equal(t, 0.0, res.Metadata.CostUSD)
	assert.Equal(t, provider.MockModel, res.Metadata.Model)
	assert.Equal(t, "v1.1", res.Metadata.PromptVersion)
	assert.Equal(t, "stop", res.Metadata.FinishReason)
	assert.Equal(t, 1.235, res.Metadata.GenerationTimeSec)
	assert.Greater(t, res.Metadata.Tokens.Input, 0)
}

func TestGenerate_MockRoundTripCoverage(t *testing.T) {
	g := newTestGenerator(provider.NewMock(0))
	p := models.SampleProject()

	for _, version := range []string{"v1.0", "v1.1", "v1.2"} {
		res, err := g.Generate(context.Background(), p, models.TestTypeSAT, version)
		require.NoError(t, err)

		v := validation.ValidateAll(res.Content, p, models.TestTypeSAT)
		assert.True(t, v.Passed, version)
		assert.Equal(t, 100.0, v.CoveragePct, version)
		assert.Empty(t, v.MissingSignals, version)
		assert.Empty(t, v.Warnings, version)
	}
}

func TestGenerate_MockCoversSpacedSignalIDs(t *testing.T) {
	g := newTestGenerator(provider.NewMock(0))
	p := &models.Project{
		ID:     "P-SP",
		System: "Skid",
		Signals: []models.Signal{
			{ID: "TT 101", Type: models.SignalTypeTemperature, Range: "0-100 C"},
			{ID: "PT-1", Type: models.SignalTypePressure, Range: "0-10 bar"},
		},
	}

	for _, version := range []string{"v1.0", "v1.1", "v1.2"} {
		res, err := g.Generate(context.Background(), p, models.TestTypeFAT, version)
		require.NoError(t, err)

		v := validation.ValidateAll(res.Content, p, models.TestTypeFAT)
		assert.Equal(t, 100.0, v.CoveragePct, version)
		assert.Equal(t, []string{"TT 101", "PT-1"}, v.TestedSignals, version)
		assert.Empty(t, v.MissingSignals, version)
	}
}

func TestGenerate_CostFromPriceTable(t *testing.T) {
	backend := testutil.NewScriptedProvider("## Test 1: S1", "gpt-4o-mini")
	backend.Responses[0].Tokens = models.Tokens{Input: 1_000_000, Output: 1_000_000}
	g := newTestGenerator(backend)

	res, err := g.Generate(context.Background(), testutil.SingleSignalProject(), models.TestTypeOQ, "v1.2")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Metadata.CostUSD, 1e-9)
	assert.Equal(t, "v1.2", res.Metadata.PromptVersion)
	assert.Contains(t, backend.Prompts()[0], "Operational Qualification")
}

func TestGenerate_UnknownVersionRecordsFallback(t *testing.T) {
	backend := testutil.NewScriptedProvider("S1", "mock-model")
	g := newTestGenerator(backend)

	res, err := g.Generate(context.Background(), testutil.SingleSignalProject(), models.TestTypeFAT, "v7")
	require.NoError(t, err)
	assert.Equal(t, "v1.1", res.Metadata.PromptVersion)
}

func TestGenerate_InvalidProjectSkipsBackend(t *testing.T) {
	backend := testutil.NewScriptedProvider("unused", "mock-model")
	g := newTestGenerator(backend)

	p := testutil.ProjectWithSignals("S1", "S1")
	_, err := g.Generate(context.Background(), p, models.TestTypeFAT, "")

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Duplicate signal ID: S1"}, verr.Errors)
	assert.Equal(t, 0, backend.Calls())
}

func TestGenerate_BackendErrorPropagatesUnchanged(t *testing.T) {
	cause := &provider.GenerationError{Provider: "openai", Attempts: 3, Transient: true, Err: errors.New("503")}
	g := newTestGenerator(testutil.NewFailingProvider(cause))

	_, err := g.Generate(context.Background(), testutil.SingleSignalProject(), models.TestTypeFAT, "")
	assert.Same(t, cause, err)
	assert.ErrorIs(t, err, provider.ErrRetryExhausted)
}

func TestGenerateAll_PreservesOrder(t *testing.T) {
	g := newTestGenerator(provider.NewMock(0))
	types := []models.TestType{models.TestTypeOQ, models.TestTypeFAT, models.TestTypeIQ}

	results, err := g.GenerateAll(context.Background(), models.SampleProject(), types, "v1.1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, types[i], r.TestType)
		assert.Contains(t, r.Content, types[i].Label())
	}
}

func TestGenerateAll_FirstErrorWins(t *testing.T) {
	g := newTestGenerator(testutil.NewFailingProvider(provider.ErrGenerationFailed))
	_, err := g.GenerateAll(context.Background(), models.SampleProject(), models.AllTestTypes(), "")
	assert.ErrorIs(t, err, provider.ErrGenerationFailed)
}

func TestProcedureAndMetrics(t *testing.T) {
	g := newTestGenerator(provider.NewMock(0))
	res, err := g.Generate(context.Background(), testutil.SingleSignalProject(), models.TestTypeFAT, "v1.2")
	require.NoError(t, err)

	proc := g.Procedure(res)
	assert.Equal(t, "P1", proc.ProjectID)
	assert.Equal(t, "v1.0", proc.TemplateVersion)
	assert.Equal(t, "v1.2", proc.PromptVersion)
	assert.Equal(t, provider.MockModel, proc.Metadata["model"])
	assert.Equal(t, res.CreatedAt, proc.CreatedAt)

	v := validation.ValidateAll(res.Content, testutil.SingleSignalProject(), models.TestTypeFAT)
	m := g.Metrics(res, v)
	assert.Equal(t, models.TestTypeFAT, m.TestType)
	assert.Equal(t, 100.0, m.Validation.CoveragePct)
	assert.Equal(t, "v1.0", m.TemplateVersion)
}
