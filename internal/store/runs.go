package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"repetend/internal/logging"
)

// Run is one persisted survey invocation.
type Run struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Base        int             `json:"base"`
	Params      json.RawMessage `json:"params"`
	Results     json.RawMessage `json:"results"`
	ResultCount int             `json:"result_count"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
}

// RecordRun persists a survey run. Empty Params or Results are stored as
// JSON null.
func (s *LocalStore) RecordRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id required")
	}
	params, results := r.Params, r.Results
	if len(params) == 0 {
		params = json.RawMessage("null")
	}
	if len(results) == 0 {
		results = json.RawMessage("null")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO survey_runs (id, kind, base, params, results, result_count, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.Base, string(params), string(results), r.ResultCount,
		r.StartedAt.UnixMilli(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	logging.StoreDebug("Recorded %s run %s (%d results)", r.Kind, r.ID, r.ResultCount)
	return nil
}

// GetRun returns one run by id.
func (s *LocalStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, base, params, results, result_count, started_at, duration_ms
		FROM survey_runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListRuns returns runs newest first. limit <= 0 means no limit.
func (s *LocalStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, kind, base, params, results, result_count, started_at, duration_ms
		FROM survey_runs ORDER BY started_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func scanRun(row scanner) (*Run, error) {
	var (
		r               Run
		params, results string
		started, ms     int64
	)
	if err := row.Scan(&r.ID, &r.Kind, &r.Base, &params, &results, &r.ResultCount, &started, &ms); err != nil {
		return nil, err
	}
	r.Params = json.RawMessage(params)
	r.Results = json.RawMessage(results)
	r.StartedAt = time.UnixMilli(started)
	r.Duration = time.Duration(ms) * time.Millisecond
	return &r, nil
}
