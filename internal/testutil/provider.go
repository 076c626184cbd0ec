package testutil

import (
	"context"
	"sync"

	"github.com/indusense/testgen/internal/provider"
)

// ScriptedProvider replays canned responses in order, repeating the last one,
// and records every prompt it receives.
type ScriptedProvider struct {
	Responses []*provider.Response
	Errors    []error

	mu      sync.Mutex
	prompts []string
}

// NewScriptedProvider returns a provider that always answers with content.
func NewScriptedProvider(content, model string) *ScriptedProvider {
	return &ScriptedProvider{
		Responses: []*provider.Response{{
			Content:      content,
			Model:        model,
			FinishReason: "stop",
		}},
	}
}

// NewFailingProvider returns a provider that always fails with err.
func NewFailingProvider(err error) *ScriptedProvider {
	return &ScriptedProvider{Errors: []error{err}}
}

func (p *ScriptedProvider) Name() string {
	return "scripted"
}

func (p *ScriptedProvider) Generate(ctx context.Context, prompt string) (*provider.Response, error) {
	p.mu.Lock()
	n := len(p.prompts)
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.Errors) > 0 {
		return nil, p.Errors[min(n, len(p.Errors)-1)]
	}
	resp := *p.Responses[min(n, len(p.Responses)-1)]
	return &resp, nil
}

// Prompts returns the prompts received so far.
func (p *ScriptedProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// Calls returns how many times Generate was called.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}
