package survey

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"repetend/internal/analysis"
	"repetend/internal/logging"
	"repetend/internal/period"
)

// Verdict classifies how many peers share all of the target's flags.
type Verdict string

const (
	VerdictUnique Verdict = "unique" // only the target
	VerdictRare   Verdict = "rare"   // fewer than RareThreshold
	VerdictCommon Verdict = "common"
	VerdictNone   Verdict = "none" // target has no flags
)

// RareThreshold is the exclusive upper bound of a rare combination.
const RareThreshold = 5

// Prevalence counts the peers carrying one flag.
type Prevalence struct {
	Flag        analysis.Flag `json:"flag"`
	Description string        `json:"description"`
	Count       int           `json:"count"`
	Total       int           `json:"total"`
	Percent     float64       `json:"percent"`
	TargetHas   bool          `json:"target_has"`
}

// Comparison is the uniqueness study of one target among every n with the
// same period length up to Hi.
type Comparison struct {
	RunID        string              `json:"run_id,omitempty"`
	Target       int64               `json:"target"`
	Base         int                 `json:"base"`
	Hi           int64               `json:"hi"`
	PeriodLength int                 `json:"period_length"`
	Peers        []int64             `json:"peers"`
	Profile      *analysis.Profile   `json:"profile"`
	Prevalence   []Prevalence        `json:"prevalence"`
	TargetFlags  []analysis.Flag     `json:"target_flags"`
	MatchingAll  int                 `json:"matching_all"`
	OthersAll    []int64             `json:"others_matching_all"`
	Verdict      Verdict             `json:"verdict"`
	Profiles     []*analysis.Profile `json:"-"`
	Elapsed      time.Duration       `json:"elapsed"`
}

// Compare profiles target and all peers in [2, hi] sharing its period
// length. hi is raised to target when smaller. A terminating target has no
// peers to compare and is rejected.
func (s *Surveyor) Compare(ctx context.Context, target, hi int64) (*Comparison, error) {
	start := time.Now()
	if target < 2 {
		return nil, fmt.Errorf("%w: target %d", ErrInvalidRange, target)
	}
	hi = max(hi, target)

	length, err := period.PeriodLength(big.NewInt(target), s.opts.Base)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, fmt.Errorf("%w: 1/%d terminates in base %d", ErrInvalidRange, target, s.opts.Base)
	}

	quiet := *s
	quiet.recorder = nil
	found, err := quiet.FindWithPeriod(ctx, length, 2, hi)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profileAll(ctx, found.Numbers)
	if err != nil {
		return nil, err
	}

	c := &Comparison{
		Target:       target,
		Base:         s.opts.Base,
		Hi:           hi,
		PeriodLength: length,
		Peers:        found.Numbers,
		Profiles:     profiles,
		OthersAll:    []int64{},
		TargetFlags:  []analysis.Flag{},
	}
	for _, p := range profiles {
		if p.N == target {
			c.Profile = p
		}
	}
	if c.Profile == nil {
		return nil, fmt.Errorf("target %d missing from its own peer set", target)
	}

	total := len(profiles)
	for _, f := range analysis.Flags {
		pv := Prevalence{Flag: f, Description: f.Description(), Total: total, TargetHas: c.Profile.Has(f)}
		for _, p := range profiles {
			if p.Has(f) {
				pv.Count++
			}
		}
		pv.Percent = 100 * float64(pv.Count) / float64(total)
		c.Prevalence = append(c.Prevalence, pv)
		if pv.TargetHas {
			c.TargetFlags = append(c.TargetFlags, f)
		}
	}

	c.Verdict = VerdictNone
	if len(c.TargetFlags) > 0 {
		for _, p := range profiles {
			if hasAll(p, c.TargetFlags) {
				c.MatchingAll++
				if p.N != target {
					c.OthersAll = append(c.OthersAll, p.N)
				}
			}
		}
		switch {
		case c.MatchingAll == 1:
			c.Verdict = VerdictUnique
		case c.MatchingAll < RareThreshold:
			c.Verdict = VerdictRare
		default:
			c.Verdict = VerdictCommon
		}
	}
	c.Elapsed = time.Since(start)
	logging.Survey("Compared %d against %d peers with period %d: %s (%d share all flags)",
		target, total, length, c.Verdict, c.MatchingAll)

	c.RunID = s.record(ctx, KindCompare, start, c.Elapsed,
		map[string]interface{}{"target": target, "hi": hi}, c, total)
	return c, nil
}

func hasAll(p *analysis.Profile, flags []analysis.Flag) bool {
	for _, f := range flags {
		if !p.Has(f) {
			return false
		}
	}
	return true
}

// profileAll profiles numbers concurrently, preserving order.
func (s *Surveyor) profileAll(ctx context.Context, numbers []int64) ([]*analysis.Profile, error) {
	out := make([]*analysis.Profile, len(numbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, n := range numbers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := analysis.ProfileOf(n, s.opts.Base)
			if err != nil {
				return fmt.Errorf("profile %d: %w", n, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
