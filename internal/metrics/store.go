// Package metrics persists generation metrics in an embedded DuckDB file.
package metrics

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS generation_metrics (
		id                  VARCHAR PRIMARY KEY,
		created_at          TIMESTAMP NOT NULL,
		project_id          VARCHAR NOT NULL,
		test_type           VARCHAR NOT NULL,
		model               VARCHAR NOT NULL,
		prompt_version      VARCHAR,
		template_version    VARCHAR,
		generation_time_sec DOUBLE NOT NULL,
		input_tokens        BIGINT NOT NULL,
		output_tokens       BIGINT NOT NULL,
		cost_usd            DOUBLE NOT NULL,
		passed              BOOLEAN NOT NULL,
		coverage_pct        DOUBLE NOT NULL,
		error_count         INTEGER NOT NULL,
		warning_count       INTEGER NOT NULL,
		validation          VARCHAR
	)
`

// Store records one row per generation.
type Store struct {
	db     *sql.DB
	dbPath string
	logger logrus.FieldLogger
}

// Open creates or opens the metrics database at dbPath. An empty path keeps
// the database in memory.
func Open(dbPath string, logger logrus.FieldLogger) (*Store, error) {
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating metrics directory: %w", err)
		}
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.WithField("path", dbPath).Debug("Metrics store ready")
	return &Store{db: db, dbPath: dbPath, logger: logger}, nil
}

// Record inserts one generation and returns its row ID.
func (s *Store) Record(ctx context.Context, m models.GenerationMetrics) (string, error) {
	validation, err := json.Marshal(m.Validation)
	if err != nil {
		return "", fmt.Errorf("encoding validation: %w", err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generation_metrics (
			id, created_at, project_id, test_type, model, prompt_version, template_version,
			generation_time_sec, input_tokens, output_tokens, cost_usd,
			passed, coverage_pct, error_count, warning_count, validation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.CreatedAt.UTC(), m.ProjectID, string(m.TestType), m.Model, m.PromptVersion, m.TemplateVersion,
		m.GenerationTimeSec, m.Tokens.Input, m.Tokens.Output, m.CostUSD,
		m.Validation.Passed, m.Validation.CoveragePct, len(m.Validation.Errors), len(m.Validation.Warnings), string(validation),
	)
	if err != nil {
		return "", fmt.Errorf("inserting metrics: %w", err)
	}
	return id, nil
}

// Recent returns up to limit rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.GenerationMetrics, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT created_at, project_id, test_type, model, prompt_version, template_version,
		       generation_time_sec, input_tokens, output_tokens, cost_usd, validation
		FROM generation_metrics
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying metrics: %w", err)
	}
	defer rows.Close()

	out := make([]models.GenerationMetrics, 0, limit)
	for rows.Next() {
		var (
			m              models.GenerationMetrics
			testType       string
			in, outTok     int64
			validationJSON sql.NullString
		)
		if err := rows.Scan(&m.CreatedAt, &m.ProjectID, &testType, &m.Model, &m.PromptVersion, &m.TemplateVersion,
			&m.GenerationTimeSec, &in, &outTok, &m.CostUSD, &validationJSON); err != nil {
			return nil, fmt.Errorf("scanning metrics: %w", err)
		}
		m.TestType = models.TestType(testType)
		m.Tokens = models.Tokens{Input: int(in), Output: int(outTok)}
		if validationJSON.Valid {
			if err := json.Unmarshal([]byte(validationJSON.String), &m.Validation); err != nil {
				s.logger.WithError(err).Warn("Skipping unreadable validation column")
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ModelSummary aggregates the rows of one model.
type ModelSummary struct {
	Model       string  `json:"model" msgpack:"model"`
	Count       int64   `json:"count" msgpack:"count"`
	TotalCost   float64 `json:"total_cost_usd" msgpack:"total_cost_usd"`
	TotalTokens int64   `json:"total_tokens" msgpack:"total_tokens"`
}

// Summary aggregates every recorded generation.
type Summary struct {
	Count          int64          `json:"count" msgpack:"count"`
	TotalCostUSD   float64        `json:"total_cost_usd" msgpack:"total_cost_usd"`
	TotalCostEUR   float64        `json:"total_cost_eur,omitempty" msgpack:"total_cost_eur,omitempty"`
	AvgTimeSec     float64        `json:"avg_generation_time_sec" msgpack:"avg_generation_time_sec"`
	AvgCoveragePct float64        `json:"avg_coverage_pct" msgpack:"avg_coverage_pct"`
	PassRate       float64        `json:"pass_rate" msgpack:"pass_rate"`
	TotalTokens    int64          `json:"total_tokens" msgpack:"total_tokens"`
	ByModel        []ModelSummary `json:"by_model" msgpack:"by_model"`
}

// Summary computes totals and averages over all rows.
func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{ByModel: []ModelSummary{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(cost_usd), 0),
		       COALESCE(AVG(generation_time_sec), 0),
		       COALESCE(AVG(coverage_pct), 0),
		       COALESCE(AVG(CASE WHEN passed THEN 1.0 ELSE 0.0 END), 0),
		       CAST(COALESCE(SUM(input_tokens + output_tokens), 0) AS BIGINT)
		FROM generation_metrics`).Scan(
		&sum.Count, &sum.TotalCostUSD, &sum.AvgTimeSec, &sum.AvgCoveragePct, &sum.PassRate, &sum.TotalTokens)
	if err != nil {
		return nil, fmt.Errorf("summarizing metrics: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT model, COUNT(*), COALESCE(SUM(cost_usd), 0),
		       CAST(COALESCE(SUM(input_tokens + output_tokens), 0) AS BIGINT)
		FROM generation_metrics
		GROUP BY model
		ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("summarizing models: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ms ModelSummary
		if err := rows.Scan(&ms.Model, &ms.Count, &ms.TotalCost, &ms.TotalTokens); err != nil {
			return nil, fmt.Errorf("scanning model summary: %w", err)
		}
		sum.ByModel = append(sum.ByModel, ms)
	}
	return sum, rows.Err()
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
