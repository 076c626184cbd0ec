// Package generator turns a project into a test procedure document.
package generator

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/pricing"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/provider"
	"github.com/indusense/testgen/internal/validation"
)

// Options holds the generator defaults.
type Options struct {
	PromptVersion   string // used when a call passes none
	TemplateVersion string
	Clock           func() time.Time
}

// Metadata describes one generation call.
type Metadata struct {
	Tokens            models.Tokens `json:"tokens"`
	CostUSD           float64       `json:"cost_usd"`
	Model             string        `json:"model"`
	Provider          string        `json:"provider"`
	PromptVersion     string        `json:"prompt_version"`
	GenerationTimeSec float64       `json:"generation_time_sec"`
	FinishReason      string        `json:"finish_reason"`
}

// Result is the generated document and its metadata.
type Result struct {
	ProjectID string          `json:"project_id"`
	TestType  models.TestType `json:"test_type"`
	Content   string          `json:"content"`
	Metadata  Metadata        `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

// Generator builds prompts, calls the backend and accounts for cost and time.
// It does not retry; that is the backend's job.
type Generator struct {
	registry *prompts.Registry
	backend  provider.Provider
	opts     Options
	logger   logrus.FieldLogger
}

// New creates a Generator.
func New(registry *prompts.Registry, backend provider.Provider, opts Options, logger logrus.FieldLogger) *Generator {
	if opts.PromptVersion == "" {
		opts.PromptVersion = prompts.DefaultVersion
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Generator{
		registry: registry,
		backend:  backend,
		opts:     opts,
		logger:   logger,
	}
}

// Provider returns the backend in use.
func (g *Generator) Provider() provider.Provider {
	return g.backend
}

// Generate produces one document. An invalid project fails with a
// *validation.Error before the backend is called. Backend errors are logged
// and returned unchanged.
func (g *Generator) Generate(ctx context.Context, project *models.Project, testType models.TestType, promptVersion string) (*Result, error) {
	log := g.logger.WithFields(logrus.Fields{
		"project_id": project.ID,
		"test_type":  testType,
		"provider":   g.backend.Name(),
	})

	if err := validation.CheckProject(project); err != nil {
		log.WithError(err).Error("Project failed validation, generation skipped")
		return nil, err
	}

	version := promptVersion
	if version == "" {
		version = g.opts.PromptVersion
	}
	resolved := g.registry.Resolve(version)

	prompt, err := g.registry.Prompt(testType, project, version)
	if err != nil {
		log.WithError(err).Error("Failed to build prompt")
		return nil, err
	}

	start := g.opts.Clock()
	resp, err := g.backend.Generate(ctx, prompt)
	elapsed := g.opts.Clock().Sub(start)
	if err != nil {
		log.WithFields(logrus.Fields{
			"attempts": provider.AttemptsOf(err),
			"elapsed":  elapsed.String(),
		}).WithError(err).Error("Generation failed")
		return nil, err
	}

	if _, ok := pricing.Lookup(resp.Model); !ok {
		log.WithField("model", resp.Model).Warn("Model missing from price table, cost recorded as 0")
	}
	cost := pricing.Calculate(resp.Model, resp.Tokens.Input, resp.Tokens.Output)

	result := &Result{
		ProjectID: project.ID,
		TestType:  testType,
		Content:   resp.Content,
		CreatedAt: start,
		Metadata: Metadata{
			Tokens:            resp.Tokens,
			CostUSD:           cost,
			Model:             resp.Model,
			Provider:          g.backend.Name(),
			PromptVersion:     resolved,
			GenerationTimeSec: math.Round(elapsed.Seconds()*1000) / 1000,
			FinishReason:      resp.FinishReason,
		},
	}

	log.WithFields(logrus.Fields{
		"model":          resp.Model,
		"prompt_version": resolved,
		"tokens":         resp.Tokens.Total(),
		"cost_usd":       cost,
		"duration_sec":   result.Metadata.GenerationTimeSec,
	}).Info("Generated test procedure")

	return result, nil
}

// GenerateAll generates several test types concurrently. Results keep the
// order of testTypes. The first failure cancels the rest.
func (g *Generator) GenerateAll(ctx context.Context, project *models.Project, testTypes []models.TestType, promptVersion string) ([]*Result, error) {
	if err := validation.CheckProject(project); err != nil {
		return nil, err
	}

	results := make([]*Result, len(testTypes))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for i, tt := range testTypes {
		eg.Go(func() error {
			r, err := g.Generate(ctx, project, tt, promptVersion)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Procedure wraps a result as a TestProcedure document.
func (g *Generator) Procedure(r *Result) *models.TestProcedure {
	return models.NewTestProcedure(r.ProjectID, r.TestType, r.Content, g.opts.TemplateVersion, r.Metadata.PromptVersion, r.CreatedAt, map[string]any{
		"model":               r.Metadata.Model,
		"provider":            r.Metadata.Provider,
		"cost_usd":            r.Metadata.CostUSD,
		"input_tokens":        r.Metadata.Tokens.Input,
		"output_tokens":       r.Metadata.Tokens.Output,
		"generation_time_sec": r.Metadata.GenerationTimeSec,
		"finish_reason":       r.Metadata.FinishReason,
	})
}

// Metrics combines a result and its validation into a reporting record.
func (g *Generator) Metrics(r *Result, v models.ValidationResult) models.GenerationMetrics {
	return models.GenerationMetrics{
		ProjectID:         r.ProjectID,
		TestType:          r.TestType,
		GenerationTimeSec: r.Metadata.GenerationTimeSec,
		Tokens:            r.Metadata.Tokens,
		CostUSD:           r.Metadata.CostUSD,
		Validation:        v,
		Model:             r.Metadata.Model,
		PromptVersion:     r.Metadata.PromptVersion,
		TemplateVersion:   g.opts.TemplateVersion,
		CreatedAt:         r.CreatedAt,
	}.Rounded()
}
