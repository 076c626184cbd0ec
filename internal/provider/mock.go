package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/indusense/testgen/internal/models"
)

// MockModel is the model name reported by the mock backend.
const MockModel = "mock-model"

var (
	// IDs may contain spaces; they end at the ": <Type> (" delimiter or the line end.
	listLinePattern      = regexp.MustCompile(`(?m)^- (.+?): (` + signalTypeAlternation() + `) \((.*)\)[ \t]*$`)
	detailedBlockPattern = regexp.MustCompile(`(?m)^Signal ID: (.+?)[ \t]*\n\s+Type: (.*)\n\s+Range: (.*)$`)
	projectIDPattern     = regexp.MustCompile(`(?m)^(?:- ID|Project ID): (\S+)`)
)

func signalTypeAlternation() string {
	types := models.AllSignalTypes()
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = regexp.QuoteMeta(t.String())
	}
	return strings.Join(parts, "|")
}

// Mock is a deterministic offline backend. It reads the signals listed in the
// prompt and writes one test section per signal.
type Mock struct {
	latency time.Duration
}

// NewMock creates a mock backend. latency simulates a slow call and honours ctx.
func NewMock(latency time.Duration) *Mock {
	return &Mock{latency: latency}
}

// Name returns "mock".
func (m *Mock) Name() string {
	return NameMock
}

// Generate builds a structurally complete procedure from the prompt.
func (m *Mock) Generate(ctx context.Context, prompt string) (*Response, error) {
	if m.latency > 0 {
		if err := sleepContext(ctx, m.latency); err != nil {
			return nil, &GenerationError{Provider: NameMock, Attempts: 1, Err: err}
		}
	}

	content := mockDocument(prompt)
	return &Response{
		Content: content,
		Tokens: models.Tokens{
			Input:  len(prompt) / 4,
			Output: len(content) / 4,
		},
		Model:        MockModel,
		FinishReason: "stop",
	}, nil
}

type promptSignal struct {
	id, typ, rng string
}

func signalsFromPrompt(prompt string) []promptSignal {
	var out []promptSignal
	seen := make(map[string]bool)
	add := func(id, typ, rng string) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, promptSignal{id: id, typ: strings.TrimSpace(typ), rng: strings.TrimSpace(rng)})
	}

	for _, m := range detailedBlockPattern.FindAllStringSubmatch(prompt, -1) {
		add(m[1], m[2], m[3])
	}
	for _, m := range listLinePattern.FindAllStringSubmatch(prompt, -1) {
		add(m[1], m[2], m[3])
	}
	return out
}

func testTypeFromPrompt(prompt string) string {
	for _, t := range models.AllTestTypes() {
		if strings.Contains(prompt, t.Label()) {
			return t.Label()
		}
	}
	return "Test"
}

func mockDocument(prompt string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Procedure\n\n", testTypeFromPrompt(prompt))
	if m := projectIDPattern.FindStringSubmatch(prompt); m != nil {
		fmt.Fprintf(&b, "**Project**: %s\n\n", m[1])
	}

	signals := signalsFromPrompt(prompt)
	if len(signals) == 0 {
		signals = []promptSignal{{id: "System", typ: "Functional", rng: "nominal operating range"}}
	}

	for i, s := range signals {
		fmt.Fprintf(&b, "## Test %d: %s - %s\n\n", i+1, s.id, s.typ)
		fmt.Fprintf(&b, "**Purpose**: Verify %s reports %s readings across %s.\n\n", s.id, strings.ToLower(s.typ), s.rng)
		b.WriteString("**Equipment**: Calibrated reference standard, data logger\n\n")
		b.WriteString("**Procedure**:\n")
		fmt.Fprintf(&b, "1. Connect the reference standard alongside %s.\n", s.id)
		b.WriteString("2. Apply a value at the low end of the range and record the reading.\n")
		b.WriteString("3. Apply a value at the high end of the range and record the reading.\n")
		b.WriteString("4. Compare each reading against the reference standard.\n\n")
		fmt.Fprintf(&b, "**Expected Result**: %s readings match the reference within the specified accuracy.\n\n", s.id)
		b.WriteString("**Acceptance Criteria**: Pass when every reading is within tolerance, fail otherwise.\n\n")
		b.WriteString("**Safety Notes**: Use caution when working near energized equipment.\n\n")
		b.WriteString("---\n\n")
	}

	b.WriteString("## Electronic Signature\n\n")
	b.WriteString("Performed by: ____________________ Date: __________\n\n")
	b.WriteString("Reviewed by: ____________________ Date: __________\n")
	return b.String()
}
