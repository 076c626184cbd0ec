package provider

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v11Prompt = `
PROJECT DETAILS:
- ID: P1
- System: Chamber

SIGNALS TO TEST:
- S1: Temperature (-10 to 50 C)
- F-2: Flow (0-10 L/min)

REQUIREMENTS:
- R1: Alarm at 45 C (hard limit)
`

func TestMock_EmitsEverySignal(t *testing.T) {
	m := NewMock(0)
	resp, err := m.Generate(context.Background(), "generating a Factory Acceptance Test procedure"+v11Prompt)
	require.NoError(t, err)

	assert.Equal(t, MockModel, resp.Model)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Contains(t, resp.Content, "# Factory Acceptance Test Procedure")
	assert.Contains(t, resp.Content, "**Project**: P1")
	assert.Contains(t, resp.Content, "## Test 1: S1 - Temperature")
	assert.Contains(t, resp.Content, "## Test 2: F-2 - Flow")
	assert.NotContains(t, resp.Content, "R1", "requirement lines are not signals")
	assert.Contains(t, resp.Content, "\n1. ")
	assert.Contains(t, resp.Content, "Electronic Signature")
	assert.Greater(t, resp.Tokens.Input, 0)
	assert.Equal(t, len(resp.Content)/4, resp.Tokens.Output)
}

func TestMock_DetailedBlocks(t *testing.T) {
	prompt := "SIGNALS UNDER TEST:\nSignal ID: T-7\n  Type: Pressure\n  Range: 0-10 bar\n  Unit: bar\n\nSignal ID: T-8\n  Type: Level\n  Range: 0-2 m\n"
	resp, err := NewMock(0).Generate(context.Background(), prompt)
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "## Test 1: T-7 - Pressure")
	assert.Contains(t, resp.Content, "across 0-10 bar")
	assert.Contains(t, resp.Content, "## Test 2: T-8 - Level")
}

func TestMock_SignalIDsWithSpaces(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"list", "SIGNALS TO TEST:\n- TT 101: Temperature (0-100 C)\n- PT-1: Pressure (0-10 bar)\n"},
		{"detailed", "Signal ID: TT 101\n  Type: Temperature\n  Range: 0-100 C\n\nSignal ID: PT-1\n  Type: Pressure\n  Range: 0-10 bar\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewMock(0).Generate(context.Background(), tt.prompt)
			require.NoError(t, err)
			assert.Contains(t, resp.Content, "## Test 1: TT 101 - Temperature")
			assert.Contains(t, resp.Content, "## Test 2: PT-1 - Pressure")
			assert.NotContains(t, resp.Content, "System - Functional")
		})
	}
}

func TestMock_Deterministic(t *testing.T) {
	m := NewMock(0)
	a, err := m.Generate(context.Background(), v11Prompt)
	require.NoError(t, err)
	b, err := m.Generate(context.Background(), v11Prompt)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMock_NoPlaceholderMarkers(t *testing.T) {
	resp, err := NewMock(0).Generate(context.Background(), v11Prompt)
	require.NoError(t, err)
	upper := strings.ToUpper(resp.Content)
	for _, marker := range []string{"TBD", "TODO", "[INSERT", "XXX", "PLACEHOLDER", "N/A"} {
		assert.NotContains(t, upper, marker)
	}
}

func TestMock_LatencyHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := NewMock(time.Hour).Generate(ctx, v11Prompt)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
