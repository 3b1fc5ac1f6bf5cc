package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"repetend/internal/period"
	"repetend/internal/store"
)

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the expansion cache",
	}
	cmd.AddCommand(a.cacheListCmd(), a.cacheGetCmd(), a.cacheClearCmd())
	return cmd
}

func (a *app) cacheListCmd() *cobra.Command {
	var f extractFlags
	var length, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached expansions",
		Example: `  repetend cache list
  repetend cache list --period-length 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.requireStore()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			var entries []store.Entry
			if cmd.Flags().Changed("period-length") {
				entries, err = st.ListByPeriodLength(ctx, a.resolveBase(cmd, &f), length, limit)
			} else {
				entries, err = st.List(ctx, limit)
			}
			if err != nil {
				return err
			}

			p := newPrinter(a.out(cmd), a.jsonOut)
			if p.json {
				return p.JSON(entries)
			}
			if len(entries) == 0 {
				p.Muted("Cache is empty")
				return nil
			}
			rows := make([][]string, len(entries))
			for i, en := range entries {
				e := en.Expansion
				rows[i] = []string{
					e.Numerator.String() + "/" + e.Denominator.String(),
					strconv.Itoa(e.Base),
					strconv.Itoa(e.Length()),
					truncate(e.String(), 40),
					strconv.Itoa(en.HitCount),
				}
			}
			p.Table([]string{"FRACTION", "BASE", "PERIOD", "EXPANSION", "HITS"}, rows)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&length, "period-length", 0, "Only entries with this period length, ordered by denominator")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries (0 = all)")
	return cmd
}

func (a *app) cacheGetCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "get <p/q>",
		Short: "Show one cached expansion without computing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, q, err := period.ParseFraction(args[0])
			if err != nil {
				return err
			}
			st, err := a.requireStore()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			base := a.resolveBase(cmd, &f)
			e, err := st.GetExpansion(ctx, p, q, base)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%s in base %d is not cached", args[0], base)
			}
			if err != nil {
				return err
			}
			return a.printExpansion(cmd, e, true)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached expansion (survey runs are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.requireStore()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			n, err := st.Clear(ctx)
			if err != nil {
				return err
			}
			p := newPrinter(a.out(cmd), a.jsonOut)
			if p.json {
				return p.JSON(map[string]int64{"removed": n})
			}
			p.Line("Removed %d cached expansions", n)
			return nil
		},
	}
}
