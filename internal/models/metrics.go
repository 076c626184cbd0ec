package models

import (
	"math"
	"time"
)

// Tokens holds the token usage of one generation call.
type Tokens struct {
	Input  int `json:"input" msgpack:"input"`
	Output int `json:"output" msgpack:"output"`
}

// Total returns input plus output tokens.
func (t Tokens) Total() int {
	return t.Input + t.Output
}

// GenerationMetrics bundles timing, cost and validation for reporting.
// Nothing in the pipeline branches on it.
type GenerationMetrics struct {
	ProjectID         string           `json:"project_id" msgpack:"project_id"`
	TestType          TestType         `json:"test_type" msgpack:"test_type"`
	GenerationTimeSec float64          `json:"generation_time_sec" msgpack:"generation_time_sec"`
	Tokens            Tokens           `json:"token_count" msgpack:"token_count"`
	CostUSD           float64          `json:"cost_usd" msgpack:"cost_usd"`
	Validation        ValidationResult `json:"validation" msgpack:"validation"`
	Model             string           `json:"model" msgpack:"model"`
	PromptVersion     string           `json:"prompt_version" msgpack:"prompt_version"`
	TemplateVersion   string           `json:"template_version" msgpack:"template_version"`
	CreatedAt         time.Time        `json:"created_at" msgpack:"created_at"`
}

// Rounded returns a copy with time rounded to ms and cost to 6 decimals,
// matching how metrics are reported.
func (m GenerationMetrics) Rounded() GenerationMetrics {
	m.GenerationTimeSec = math.Round(m.GenerationTimeSec*1000) / 1000
	m.CostUSD = math.Round(m.CostUSD*1e6) / 1e6
	return m
}
