package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"repetend/internal/logging"
	"repetend/internal/period"
)

// Entry is a cached expansion with its bookkeeping.
type Entry struct {
	Expansion    *period.Expansion `json:"expansion"`
	HitCount     int               `json:"hit_count"`
	CreatedAt    time.Time         `json:"created_at"`
	LastAccessed time.Time         `json:"last_accessed,omitempty"`
}

// PutExpansion caches e, replacing any previous row for the same key and
// resetting its hit count.
func (s *LocalStore) PutExpansion(ctx context.Context, e *period.Expansion) error {
	if err := e.Verify(); err != nil {
		return fmt.Errorf("refusing to cache %s: %w", e.String(), err)
	}
	pre, err := json.Marshal(e.PrePeriod)
	if err != nil {
		return fmt.Errorf("failed to encode preperiod: %w", err)
	}
	per, err := json.Marshal(e.Period)
	if err != nil {
		return fmt.Errorf("failed to encode period: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO expansions
			(numerator, denominator, base, negative, integer_part, preperiod, period,
			 period_length, terminates, created_at, hit_count, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL)`,
		e.Numerator.String(), e.Denominator.String(), e.Base, e.Negative, e.IntegerPart.String(),
		string(pre), string(per), e.Length(), e.Terminates, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store expansion: %w", err)
	}
	logging.StoreDebug("Cached %s/%s base %d (period %d)", e.Numerator, e.Denominator, e.Base, e.Length())
	return nil
}

// GetExpansion returns the cached expansion of p/q in base and bumps its hit
// count. A miss is ErrNotFound.
func (s *LocalStore) GetExpansion(ctx context.Context, p, q *big.Int, base int) (*period.Expansion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT numerator, denominator, base, negative, integer_part, preperiod, period,
		       terminates, hit_count, created_at, last_accessed
		FROM expansions WHERE numerator = ? AND denominator = ? AND base = ?`,
		p.String(), q.String(), base)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE expansions SET hit_count = hit_count + 1, last_accessed = ?
		WHERE numerator = ? AND denominator = ? AND base = ?`,
		time.Now().UnixMilli(), p.String(), q.String(), base); err != nil {
		logging.StoreWarn("Failed to record cache hit: %v", err)
	}
	return entry.Expansion, nil
}

// ListByPeriodLength lists cached expansions in base with the given period
// length, ordered by denominator then numerator. limit <= 0 means no limit.
func (s *LocalStore) ListByPeriodLength(ctx context.Context, base, length, limit int) ([]Entry, error) {
	query := `
		SELECT numerator, denominator, base, negative, integer_part, preperiod, period,
		       terminates, hit_count, created_at, last_accessed
		FROM expansions WHERE base = ? AND period_length = ?
		ORDER BY length(denominator), denominator, length(numerator), numerator`
	args := []interface{}{base, length}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.list(ctx, query, args...)
}

// List returns the most recently cached expansions. limit <= 0 means no limit.
func (s *LocalStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT numerator, denominator, base, negative, integer_part, preperiod, period,
		       terminates, hit_count, created_at, last_accessed
		FROM expansions ORDER BY created_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.list(ctx, query, args...)
}

func (s *LocalStore) list(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expansions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Count returns the number of cached expansions.
func (s *LocalStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expansions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expansions: %w", err)
	}
	return n, nil
}

// Clear removes every cached expansion and returns how many were removed.
// Survey runs are kept.
func (s *LocalStore) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM expansions")
	if err != nil {
		return 0, fmt.Errorf("failed to clear expansions: %w", err)
	}
	n, _ := res.RowsAffected()
	logging.Store("Cleared %d cached expansions", n)
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		num, den, intPart, pre, per string
		base, hits                  int
		negative, terminates        bool
		created                     int64
		accessed                    sql.NullInt64
	)
	if err := row.Scan(&num, &den, &base, &negative, &intPart, &pre, &per, &terminates, &hits, &created, &accessed); err != nil {
		return nil, err
	}

	e := &period.Expansion{Base: base, Negative: negative, Terminates: terminates}
	var ok bool
	if e.Numerator, ok = new(big.Int).SetString(num, 10); !ok {
		return nil, fmt.Errorf("%w: numerator %q", ErrCorrupt, num)
	}
	if e.Denominator, ok = new(big.Int).SetString(den, 10); !ok {
		return nil, fmt.Errorf("%w: denominator %q", ErrCorrupt, den)
	}
	if e.IntegerPart, ok = new(big.Int).SetString(intPart, 10); !ok {
		return nil, fmt.Errorf("%w: integer part %q", ErrCorrupt, intPart)
	}
	if err := json.Unmarshal([]byte(pre), &e.PrePeriod); err != nil {
		return nil, fmt.Errorf("%w: preperiod: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal([]byte(per), &e.Period); err != nil {
		return nil, fmt.Errorf("%w: period: %v", ErrCorrupt, err)
	}
	if e.PrePeriod == nil {
		e.PrePeriod = []int{}
	}
	if e.Period == nil {
		e.Period = []int{}
	}
	if err := e.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %s/%s base %d: %v", ErrCorrupt, num, den, base, err)
	}

	entry := &Entry{Expansion: e, HitCount: hits, CreatedAt: time.UnixMilli(created)}
	if accessed.Valid {
		entry.LastAccessed = time.UnixMilli(accessed.Int64)
	}
	return entry, nil
}
