// Package jobs runs batch generations in the background and tracks their
// progress.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/validation"
)

// Status represents the job processing status.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusGenerating Status = "generating"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Done reports whether the status is terminal.
func (s Status) Done() bool {
	return s == StatusComplete || s == StatusError
}

// ErrShuttingDown is returned by Start once Shutdown has begun.
var ErrShuttingDown = errors.New("job manager is shutting down")

// Item is the outcome for one test type of a job.
type Item struct {
	TestType   models.TestType          `json:"test_type"`
	Status     Status                   `json:"status"`
	Procedure  *models.TestProcedure    `json:"procedure,omitempty"`
	Metadata   *generator.Metadata      `json:"metadata,omitempty"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// Job is a batch generation for one project.
type Job struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	PromptVersion string     `json:"prompt_version,omitempty"`
	Provider      string     `json:"provider,omitempty"`
	Status        Status     `json:"status"`
	Progress      float64    `json:"progress"`
	Stage         string     `json:"stage"`
	Items         []Item     `json:"items"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Request describes a batch to run.
type Request struct {
	Project       *models.Project
	TestTypes     []models.TestType // empty means every supported type
	PromptVersion string
	Provider      string
}

// GeneratorFunc returns the generator for a provider name.
type GeneratorFunc func(providerName string) (*generator.Generator, error)

// Recorder persists per-document metrics.
type Recorder interface {
	Record(ctx context.Context, m models.GenerationMetrics) (string, error)
}

// Options configures a Manager.
type Options struct {
	MaxConcurrent int
	Validate      bool
	Recorder      Recorder // nil disables recording
	Clock         func() time.Time
}

// Manager handles async batch generation.
type Manager struct {
	jobs       map[string]*Job
	mu         sync.RWMutex
	generators GeneratorFunc
	opts       Options
	slots      chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	logger     logrus.FieldLogger
}

// NewManager creates a new job manager.
func NewManager(generators GeneratorFunc, opts Options, logger logrus.FieldLogger) *Manager {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:       make(map[string]*Job),
		generators: generators,
		opts:       opts,
		slots:      make(chan struct{}, opts.MaxConcurrent),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger.WithField("component", "jobs"),
	}
}

// Start validates the project and queues the batch. An invalid project is
// rejected here with a *validation.Error and no job is created.
func (m *Manager) Start(req Request) (Job, error) {
	if req.Project == nil {
		return Job{}, &validation.Error{Errors: []string{"project is required"}}
	}
	if err := validation.CheckProject(req.Project); err != nil {
		return Job{}, err
	}
	testTypes := dedupe(req.TestTypes)
	if len(testTypes) == 0 {
		testTypes = models.AllTestTypes()
	}

	job := &Job{
		ID:            uuid.New().String(),
		ProjectID:     req.Project.ID,
		PromptVersion: req.PromptVersion,
		Provider:      req.Provider,
		Status:        StatusQueued,
		Stage:         "queued",
		Items:         make([]Item, len(testTypes)),
		CreatedAt:     m.opts.Clock(),
	}
	for i, tt := range testTypes {
		job.Items[i] = Item{TestType: tt, Status: StatusQueued}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Job{}, ErrShuttingDown
	}
	m.jobs[job.ID] = job
	m.wg.Add(1)
	m.mu.Unlock()

	go m.processJob(job, req.Project)

	return m.snapshot(job), nil
}

// GetJob returns a copy of the job.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return copyJob(job), true
}

// List returns copies of all jobs, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, copyJob(job))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Wait blocks until the job reaches a terminal status or ctx ends.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		job, ok := m.GetJob(id)
		if !ok {
			return Job{}, fmt.Errorf("job %s not found", id)
		}
		if job.Status.Done() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manager) processJob(job *Job, project *models.Project) {
	defer m.wg.Done()
	log := m.logger.WithFields(logrus.Fields{"job_id": job.ID, "project_id": job.ProjectID})

	select {
	case m.slots <- struct{}{}:
		defer func() { <-m.slots }()
	case <-m.ctx.Done():
		m.markJobError(job, "cancelled before start")
		return
	}

	gen, err := m.generators(job.Provider)
	if err != nil {
		m.markJobError(job, err.Error())
		log.WithError(err).Error("Job failed to select provider")
		return
	}

	log.WithField("test_types", len(job.Items)).Info("Starting batch generation")

	failed := 0
	for i := range job.Items {
		tt := job.Items[i].TestType
		m.updateItem(job, i, func(it *Item) { it.Status = StatusGenerating }, "generating "+string(tt))

		result, err := gen.Generate(m.ctx, project, tt, job.PromptVersion)
		if err != nil {
			failed++
			m.updateItem(job, i, func(it *Item) {
				it.Status = StatusError
				it.Error = err.Error()
			}, "")
			log.WithError(err).WithField("test_type", tt).Warn("Batch item failed")
			if m.ctx.Err() != nil {
				break
			}
			continue
		}

		var report *models.ValidationResult
		if m.opts.Validate {
			v := validation.ValidateAll(result.Content, project, tt)
			report = &v
		}
		m.record(gen, result, report, log)

		procedure := gen.Procedure(result)
		meta := result.Metadata
		m.updateItem(job, i, func(it *Item) {
			it.Status = StatusComplete
			it.Procedure = procedure
			it.Metadata = &meta
			it.Validation = report
		}, "")
	}

	if m.ctx.Err() != nil {
		m.markJobError(job, "cancelled")
		return
	}
	if failed == len(job.Items) {
		m.markJobError(job, fmt.Sprintf("all %d generations failed", failed))
		return
	}
	m.markJobComplete(job)
	log.WithField("failed", failed).Info("Batch generation complete")
}

func (m *Manager) record(gen *generator.Generator, result *generator.Result, report *models.ValidationResult, log logrus.FieldLogger) {
	if m.opts.Recorder == nil {
		return
	}
	var v models.ValidationResult
	if report != nil {
		v = *report
	}
	if _, err := m.opts.Recorder.Record(m.ctx, gen.Metrics(result, v)); err != nil {
		log.WithError(err).Warn("Failed to record generation metrics")
	}
}

// updateItem applies fn to item i and recomputes progress (thread-safe).
func (m *Manager) updateItem(job *Job, i int, fn func(*Item), stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&job.Items[i])
	job.Status = StatusGenerating
	if stage != "" {
		job.Stage = stage
	}

	done := 0
	for _, it := range job.Items {
		if it.Status.Done() {
			done++
		}
	}
	job.Progress = float64(done) / float64(len(job.Items)) * 100
}

// markJobComplete marks job as complete (thread-safe).
func (m *Manager) markJobComplete(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusComplete
	job.Stage = "complete"
	job.Progress = 100
	now := m.opts.Clock()
	job.CompletedAt = &now
}

// markJobError marks job as failed (thread-safe).
func (m *Manager) markJobError(job *Job, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusError
	job.Stage = "failed"
	job.Error = errMsg
	now := m.opts.Clock()
	job.CompletedAt = &now
}

// CleanupOldJobs removes finished jobs older than maxAge and returns how many
// were removed.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.opts.Clock().Add(-maxAge)
	removed := 0
	for id, job := range m.jobs {
		if job.Status.Done() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// Shutdown stops accepting jobs, cancels running ones and waits for them.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) snapshot(job *Job) Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyJob(job)
}

func copyJob(job *Job) Job {
	out := *job
	out.Items = append([]Item(nil), job.Items...)
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

func dedupe(in []models.TestType) []models.TestType {
	seen := make(map[models.TestType]bool, len(in))
	out := make([]models.TestType, 0, len(in))
	for _, tt := range in {
		if !seen[tt] {
			seen[tt] = true
			out = append(out, tt)
		}
	}
	return out
}
