package survey

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"repetend/internal/analysis"
	"repetend/internal/period"
	"repetend/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memRecorder struct {
	mu   sync.Mutex
	runs []store.Run
	err  error
}

func (r *memRecorder) RecordRun(_ context.Context, run store.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

func TestFindWithPeriod_Eight(t *testing.T) {
	s := New(Options{Workers: 3, ChunkSize: 17}, nil)

	res, err := s.FindWithPeriod(context.Background(), 8, 2, 1000)
	require.NoError(t, err)

	want := []int64{73, 137, 146, 219, 274, 292, 365, 411, 438, 548, 584, 657, 685, 730, 803, 822, 876}
	if diff := cmp.Diff(want, res.Numbers); diff != "" {
		t.Errorf("period-8 denominators mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 10, res.Base)
	assert.Empty(t, res.RunID)
}

func TestFindWithPeriod_DeterministicAcrossWorkerCounts(t *testing.T) {
	ctx := context.Background()
	var baseline []int64
	for _, opts := range []Options{
		{Workers: 1, ChunkSize: 1000},
		{Workers: 2, ChunkSize: 7},
		{Workers: 16, ChunkSize: 1},
	} {
		res, err := New(opts, nil).FindWithPeriod(ctx, 22, 2, 600)
		require.NoError(t, err)
		if baseline == nil {
			baseline = res.Numbers
			continue
		}
		assert.Equal(t, baseline, res.Numbers, "options %+v", opts)
	}
	assert.Contains(t, baseline, int64(92))
	assert.Contains(t, baseline, int64(23))
}

func TestFindWithPeriod_AgreesWithExtract(t *testing.T) {
	for _, base := range []int{2, 3, 7, 10} {
		res, err := New(Options{Base: base}, nil).FindWithPeriod(context.Background(), 4, 1, 200)
		require.NoError(t, err)
		for _, n := range res.Numbers {
			e, err := period.Reciprocal(n, base)
			require.NoError(t, err)
			assert.Equal(t, 4, e.Length(), "1/%d base %d", n, base)
		}
	}
}

func TestFindWithPeriod_TerminatingTarget(t *testing.T) {
	res, err := New(Options{}, nil).FindWithPeriod(context.Background(), 0, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4, 5, 8, 10, 16, 20}, res.Numbers)
}

func TestFindWithPeriod_Errors(t *testing.T) {
	s := New(Options{}, nil)
	ctx := context.Background()

	_, err := s.FindWithPeriod(ctx, 8, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = s.FindWithPeriod(ctx, 8, 10, 9)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = s.FindWithPeriod(ctx, -1, 1, 9)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(Options{Base: 1}, nil).FindWithPeriod(ctx, 1, 1, 5)
	assert.ErrorIs(t, err, period.ErrInvalidBase)
}

func TestFindWithPeriod_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Workers: 2, ChunkSize: 10}, nil).FindWithPeriod(ctx, 8, 1, 100000)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestScan_RangeEndingAtMaxInt64(t *testing.T) {
	lo := int64(math.MaxInt64 - 3)
	for _, chunk := range []int{1, 2, 3, 1000} {
		opts := Options{Workers: 2, ChunkSize: chunk}.withDefaults()
		chunks, err := scan(context.Background(), opts, lo, math.MaxInt64, func(n int64) (bool, int, error) {
			return true, 0, nil
		})
		require.NoError(t, err, "chunk size %d", chunk)
		var got []int64
		for _, c := range chunks {
			for _, h := range c {
				got = append(got, h.N)
			}
		}
		assert.Equal(t, []int64{lo, lo + 1, lo + 2, math.MaxInt64}, got, "chunk size %d", chunk)
	}
}

func TestLengths_Nearby137(t *testing.T) {
	res, err := New(Options{ChunkSize: 2}, nil).Lengths(context.Background(), 135, 139)
	require.NoError(t, err)
	want := []LengthEntry{{135, 3}, {136, 16}, {137, 8}, {138, 22}, {139, 46}}
	assert.Equal(t, want, res.Entries)
}

func TestCompare_137IsUnique(t *testing.T) {
	c, err := New(Options{Workers: 4, ChunkSize: 50}, nil).Compare(context.Background(), 137, 1000)
	require.NoError(t, err)

	assert.Equal(t, 8, c.PeriodLength)
	assert.Len(t, c.Peers, 17)
	assert.Equal(t, []analysis.Flag{analysis.FlagDigitSumDiv9, analysis.FlagBinaryBalanced, analysis.FlagContains729}, c.TargetFlags)

	counts := map[analysis.Flag]int{}
	for _, p := range c.Prevalence {
		counts[p.Flag] = p.Count
		assert.Equal(t, 17, p.Total)
	}
	assert.Equal(t, map[analysis.Flag]int{
		analysis.FlagDigitSumDiv9:   11,
		analysis.FlagBinaryBalanced: 3,
		analysis.FlagTernaryDoubles: 2,
		analysis.FlagOctal24:        0,
		analysis.FlagContains729:    1,
		analysis.FlagAllDigits:      0,
	}, counts)

	assert.Equal(t, 1, c.MatchingAll)
	assert.Empty(t, c.OthersAll)
	assert.Equal(t, VerdictUnique, c.Verdict)
}

func TestCompare_92IsRare(t *testing.T) {
	c, err := New(Options{}, nil).Compare(context.Background(), 92, 1000)
	require.NoError(t, err)
	assert.Equal(t, 22, c.PeriodLength)
	assert.Len(t, c.Peers, 30)
	assert.Equal(t, 3, c.MatchingAll)
	assert.Equal(t, []int64{115, 920}, c.OthersAll)
	assert.Equal(t, VerdictRare, c.Verdict)
}

func TestCompare_RaisesHiToTarget(t *testing.T) {
	c, err := New(Options{}, nil).Compare(context.Background(), 173, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(173), c.Hi)
	assert.Equal(t, []int64{173}, c.Peers)
	assert.Equal(t, VerdictUnique, c.Verdict)
}

func TestCompare_Errors(t *testing.T) {
	s := New(Options{}, nil)
	_, err := s.Compare(context.Background(), 8, 100)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = s.Compare(context.Background(), 1, 100)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRecorder(t *testing.T) {
	rec := &memRecorder{}
	s := New(Options{}, rec)
	ctx := context.Background()

	res, err := s.FindWithPeriod(ctx, 8, 2, 300)
	require.NoError(t, err)
	require.Len(t, rec.runs, 1)
	run := rec.runs[0]
	assert.Equal(t, res.RunID, run.ID)
	assert.Equal(t, KindFindWithPeriod, run.Kind)
	assert.Equal(t, 6, run.ResultCount)

	var got []int64
	require.NoError(t, json.Unmarshal(run.Results, &got))
	assert.Equal(t, []int64{73, 137, 146, 219, 274, 292}, got)

	// Compare records itself once, not its inner scan
	_, err = s.Compare(ctx, 137, 300)
	require.NoError(t, err)
	require.Len(t, rec.runs, 2)
	assert.Equal(t, KindCompare, rec.runs[1].Kind)
}

func TestRecorder_FailureIsNotFatal(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	res, err := New(Options{}, rec).FindWithPeriod(context.Background(), 8, 2, 100)
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
	assert.Equal(t, []int64{73}, res.Numbers)
}

func TestRecorder_Store(t *testing.T) {
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	res, err := New(Options{}, st).Lengths(ctx, 135, 139)
	require.NoError(t, err)

	run, err := st.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, KindLengths, run.Kind)
	assert.Equal(t, 5, run.ResultCount)
}
