// Package survey scans ranges of denominators: which n have a given period
// length, and how a target's period profile compares with its same-length
// peers. Work is split into fixed chunks processed by a bounded errgroup and
// merged in chunk order, so results never depend on scheduling.
package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"repetend/internal/logging"
	"repetend/internal/period"
	"repetend/internal/store"
)

// ErrInvalidRange reports an empty or non-positive scan range.
var ErrInvalidRange = errors.New("invalid survey range")

// Run kinds recorded in the store.
const (
	KindFindWithPeriod = "find_with_period"
	KindLengths        = "lengths"
	KindCompare        = "compare"
)

// Recorder persists completed runs. *store.LocalStore satisfies it.
type Recorder interface {
	RecordRun(ctx context.Context, r store.Run) error
}

// Options tunes a Surveyor. Zero fields take defaults.
type Options struct {
	Base          int
	Workers       int
	ChunkSize     int
	SlowThreshold time.Duration
}

func (o Options) withDefaults() Options {
	if o.Base == 0 {
		o.Base = 10
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 256
	}
	if o.SlowThreshold <= 0 {
		o.SlowThreshold = 10 * time.Second
	}
	return o
}

// Surveyor runs range scans. It is safe for concurrent use.
type Surveyor struct {
	opts     Options
	recorder Recorder
}

// New returns a Surveyor. recorder may be nil.
func New(opts Options, recorder Recorder) *Surveyor {
	return &Surveyor{opts: opts.withDefaults(), recorder: recorder}
}

// Options returns the effective options.
func (s *Surveyor) Options() Options {
	return s.opts
}

// FindResult lists every n in [Lo, Hi] whose reciprocal has period length
// Target, ascending.
type FindResult struct {
	RunID   string        `json:"run_id,omitempty"`
	Target  int           `json:"target"`
	Base    int           `json:"base"`
	Lo      int64         `json:"lo"`
	Hi      int64         `json:"hi"`
	Numbers []int64       `json:"numbers"`
	Elapsed time.Duration `json:"elapsed"`
}

// FindWithPeriod scans [lo, hi]. A target of 0 selects the terminating
// reciprocals.
func (s *Surveyor) FindWithPeriod(ctx context.Context, target int, lo, hi int64) (*FindResult, error) {
	if target < 0 {
		return nil, fmt.Errorf("%w: negative target period %d", ErrInvalidRange, target)
	}
	start := time.Now()
	timer := logging.StartTimer(logging.CategorySurvey, fmt.Sprintf("FindWithPeriod(%d, %d..%d)", target, lo, hi))
	defer timer.StopWithThreshold(s.opts.SlowThreshold)

	chunks, err := scan(ctx, s.opts, lo, hi, func(n int64) (bool, int, error) {
		length, err := period.PeriodLength(big.NewInt(n), s.opts.Base)
		if err != nil {
			return false, 0, err
		}
		return length == target, length, nil
	})
	if err != nil {
		return nil, err
	}

	numbers := []int64{}
	for _, c := range chunks {
		for _, h := range c {
			numbers = append(numbers, h.N)
		}
	}
	res := &FindResult{
		Target:  target,
		Base:    s.opts.Base,
		Lo:      lo,
		Hi:      hi,
		Numbers: numbers,
		Elapsed: time.Since(start),
	}
	logging.Survey("Found %d numbers in [%d, %d] with period %d (base %d)", len(numbers), lo, hi, target, s.opts.Base)

	res.RunID = s.record(ctx, KindFindWithPeriod, start, res.Elapsed,
		map[string]interface{}{"target": target, "lo": lo, "hi": hi}, numbers, len(numbers))
	return res, nil
}

// LengthEntry is the period length of 1/N.
type LengthEntry struct {
	N            int64 `json:"n"`
	PeriodLength int   `json:"period_length"`
}

// LengthsResult lists the period length of every n in [Lo, Hi].
type LengthsResult struct {
	RunID   string        `json:"run_id,omitempty"`
	Base    int           `json:"base"`
	Lo      int64         `json:"lo"`
	Hi      int64         `json:"hi"`
	Entries []LengthEntry `json:"entries"`
	Elapsed time.Duration `json:"elapsed"`
}

// Lengths reports the period length of each n in [lo, hi], ascending.
func (s *Surveyor) Lengths(ctx context.Context, lo, hi int64) (*LengthsResult, error) {
	start := time.Now()
	timer := logging.StartTimer(logging.CategorySurvey, fmt.Sprintf("Lengths(%d..%d)", lo, hi))
	defer timer.StopWithThreshold(s.opts.SlowThreshold)

	chunks, err := scan(ctx, s.opts, lo, hi, func(n int64) (bool, int, error) {
		length, err := period.PeriodLength(big.NewInt(n), s.opts.Base)
		return true, length, err
	})
	if err != nil {
		return nil, err
	}
	res := &LengthsResult{Base: s.opts.Base, Lo: lo, Hi: hi, Entries: []LengthEntry{}}
	for _, c := range chunks {
		for _, h := range c {
			res.Entries = append(res.Entries, LengthEntry{N: h.N, PeriodLength: h.Length})
		}
	}
	res.Elapsed = time.Since(start)
	res.RunID = s.record(ctx, KindLengths, start, res.Elapsed,
		map[string]interface{}{"lo": lo, "hi": hi}, res.Entries, len(res.Entries))
	return res, nil
}

type hit struct {
	N      int64
	Length int
}

// scan evaluates fn over [lo, hi] in ChunkSize chunks with at most Workers
// chunks in flight. Chunk i's hits land in slot i.
func scan(ctx context.Context, opts Options, lo, hi int64, fn func(n int64) (bool, int, error)) ([][]hit, error) {
	if lo < 1 || hi < lo {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, lo, hi)
	}
	size := int64(opts.ChunkSize)
	count := (hi-lo)/size + 1
	slots := make([][]hit, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var err error
	for i := int64(0); i < count; i++ {
		if cerr := gctx.Err(); cerr != nil {
			err = cerr
			break
		}
		first := lo + i*size
		last := hi
		if hi-first >= size {
			last = first + size - 1
		}
		g.Go(func() error {
			var out []hit
			// last may be math.MaxInt64, so n never steps past it
			for n := first; ; n++ {
				if n%64 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				ok, length, err := fn(n)
				if err != nil {
					return fmt.Errorf("n=%d: %w", n, err)
				}
				if ok {
					out = append(out, hit{N: n, Length: length})
				}
				if n == last {
					break
				}
			}
			slots[i] = out
			logging.SurveyDebug("Chunk %d..%d: %d hits", first, last, len(out))
			return nil
		})
	}
	if werr := g.Wait(); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	// cancellation after the last chunk still fails the scan
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	return slots, nil
}

// record persists a run when a recorder is configured and returns its id.
// Persistence failures are logged, never returned.
func (s *Surveyor) record(ctx context.Context, kind string, start time.Time, elapsed time.Duration, params, results interface{}, count int) string {
	if s.recorder == nil {
		return ""
	}
	p, err := json.Marshal(params)
	if err != nil {
		logging.SurveyWarn("Failed to encode %s params: %v", kind, err)
		return ""
	}
	r, err := json.Marshal(results)
	if err != nil {
		logging.SurveyWarn("Failed to encode %s results: %v", kind, err)
		return ""
	}
	run := store.Run{
		ID:          uuid.NewString(),
		Kind:        kind,
		Base:        s.opts.Base,
		Params:      p,
		Results:     r,
		ResultCount: count,
		StartedAt:   start,
		Duration:    elapsed,
	}
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		logging.SurveyWarn("Failed to record %s run: %v", kind, err)
		return ""
	}
	return run.ID
}
