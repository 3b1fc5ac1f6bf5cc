package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"repetend/internal/logging"
	"repetend/internal/period"
	"repetend/internal/store"
)

// extractFlags are shared by every command that expands a fraction.
type extractFlags struct {
	base      int
	maxDigits int
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.base, "base", "b", 0, "Radix (default: extraction.default_base)")
	cmd.Flags().IntVar(&f.maxDigits, "max-digits", 0, "Digit bound (default: extraction.max_digits, 0 = automatic)")
}

func (a *app) resolveBase(cmd *cobra.Command, f *extractFlags) int {
	if cmd.Flags().Changed("base") {
		return f.base
	}
	return a.cfg.Extraction.DefaultBase
}

func (a *app) resolveMaxDigits(cmd *cobra.Command, f *extractFlags) int {
	if cmd.Flags().Changed("max-digits") {
		return f.maxDigits
	}
	return a.cfg.Extraction.MaxDigits
}

// expand returns the expansion of p/q, served from the cache when present.
// Fresh results are written back; cache failures only log.
func (a *app) expand(ctx context.Context, p, q *big.Int, base, maxDigits int) (*period.Expansion, bool, error) {
	st, err := a.openStore()
	if err != nil {
		logging.StoreWarn("Cache unavailable: %v", err)
		st = nil
	}
	if st != nil {
		e, err := st.GetExpansion(ctx, p, q, base)
		switch {
		case err == nil:
			logging.ExtractDebug("Cache hit for %s/%s base %d", p, q, base)
			// a cached result must not outrun the caller's bound
			if err := e.CheckBound(maxDigits); err != nil {
				return nil, false, err
			}
			return e, true, nil
		case errors.Is(err, store.ErrNotFound):
		default:
			logging.StoreWarn("Cache lookup failed for %s/%s: %v", p, q, err)
		}
	}

	timer := logging.StartTimer(logging.CategoryExtract, fmt.Sprintf("Extract(%s/%s, base %d)", p, q, base))
	e, err := period.Extract(p, q, base, maxDigits)
	timer.Stop()
	if err != nil {
		return nil, false, err
	}
	if st != nil {
		if err := st.PutExpansion(ctx, e); err != nil {
			logging.StoreWarn("Failed to cache %s/%s: %v", p, q, err)
		}
	}
	return e, false, nil
}

type expansionOutput struct {
	*period.Expansion
	Rendered     string `json:"expansion"`
	Offset       int    `json:"offset"`
	PrePeriodStr string `json:"preperiod_digits"`
	PeriodStr    string `json:"period_digits"`
	PeriodLength int    `json:"period_length"`
	Cached       bool   `json:"cached"`
}

func (a *app) printExpansion(cmd *cobra.Command, e *period.Expansion, cached bool) error {
	p := newPrinter(a.out(cmd), a.jsonOut)
	if p.json {
		return p.JSON(expansionOutput{
			Expansion:    e,
			Rendered:     e.String(),
			Offset:       e.Offset(),
			PrePeriodStr: e.PrePeriodString(),
			PeriodStr:    e.PeriodString(),
			PeriodLength: e.Length(),
			Cached:       cached,
		})
	}
	p.Title("%s/%s in base %d", e.Numerator, e.Denominator, e.Base)
	p.Fields([][2]string{
		{"expansion", truncate(e.String(), 120)},
		{"offset", strconv.Itoa(e.Offset())},
		{"preperiod", e.PrePeriodString()},
		{"period", truncate(e.PeriodString(), 120)},
		{"length", strconv.Itoa(e.Length())},
		{"terminates", yesNo(e.Terminates)},
		{"cached", yesNo(cached)},
	})
	return nil
}

func (a *app) extractCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract <p/q>",
		Short: "Expand p/q and split off its repeating block",
		Example: `  repetend extract 1/137
  repetend extract 5/12 --base 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, q, err := period.ParseFraction(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			e, cached, err := a.expand(ctx, p, q, a.resolveBase(cmd, &f), a.resolveMaxDigits(cmd, &f))
			if err != nil {
				return err
			}
			return a.printExpansion(cmd, e, cached)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) reciprocalCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "reciprocal <n>",
		Short: "Expand 1/n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, ok := new(big.Int).SetString(args[0], 10)
			if !ok {
				return fmt.Errorf("invalid integer %q", args[0])
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			e, cached, err := a.expand(ctx, big.NewInt(1), n, a.resolveBase(cmd, &f), a.resolveMaxDigits(cmd, &f))
			if err != nil {
				return err
			}
			return a.printExpansion(cmd, e, cached)
		},
	}
	f.register(cmd)
	return cmd
}
