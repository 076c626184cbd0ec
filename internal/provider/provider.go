// Package provider abstracts the text-generation backend.
package provider

import (
	"context"

	"github.com/indusense/testgen/internal/models"
)

// Response is what a backend returns for one prompt.
type Response struct {
	Content      string        `json:"content"`
	Tokens       models.Tokens `json:"tokens"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason"`
}

// Provider generates text for a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (*Response, error)
}

const (
	NameMock   = "mock"
	NameOpenAI = "openai"
)
