package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"repetend/internal/analysis"
	"repetend/internal/survey"
)

func (a *app) surveyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Scan ranges of denominators",
		Long: `Scan ranges of denominators concurrently. Worker count, chunk size and
timeout come from the survey section of the config. Completed runs are
recorded in the cache database unless caching is off.`,
	}
	cmd.AddCommand(a.surveyPeriodCmd(), a.surveyLengthsCmd(), a.surveyCompareCmd(), a.surveyRunsCmd())
	return cmd
}

func (a *app) surveyPeriodCmd() *cobra.Command {
	var f extractFlags
	var lo, hi int64
	cmd := &cobra.Command{
		Use:   "period <length>",
		Short: "List every n whose reciprocal has the given period length",
		Example: `  repetend survey period 8 --hi 1000
  repetend survey period 0 --hi 100   # terminating reciprocals`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid period length %q", args[0])
			}
			if !cmd.Flags().Changed("hi") {
				hi = a.cfg.Survey.DefaultMax
			}
			s, err := a.surveyor(a.resolveBase(cmd, &f))
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			res, err := s.FindWithPeriod(ctx, target, lo, hi)
			if err != nil {
				return err
			}

			p := newPrinter(a.out(cmd), a.jsonOut)
			if p.json {
				return p.JSON(res)
			}
			p.Title("Period length %d in base %d, n in [%d, %d]", res.Target, res.Base, res.Lo, res.Hi)
			p.Line("  %d found: %s", len(res.Numbers), joinInts(res.Numbers))
			printRunID(p, res.RunID)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().Int64Var(&lo, "lo", 2, "Lower end of the range")
	cmd.Flags().Int64Var(&hi, "hi", 0, "Upper end of the range (default: survey.default_max)")
	return cmd
}

func (a *app) surveyLengthsCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:     "lengths <lo> <hi>",
		Short:   "Print the period length of 1/n for every n in a range",
		Example: `  repetend survey lengths 135 139`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lower bound %q", args[0])
			}
			hi, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid upper bound %q", args[1])
			}
			s, err := a.surveyor(a.resolveBase(cmd, &f))
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			res, err := s.Lengths(ctx, lo, hi)
			if err != nil {
				return err
			}

			p := newPrinter(a.out(cmd), a.jsonOut)
			if p.json {
				return p.JSON(res)
			}
			p.Title("Period lengths in base %d, n in [%d, %d]", res.Base, res.Lo, res.Hi)
			rows := make([][]string, len(res.Entries))
			for i, e := range res.Entries {
				rows[i] = []string{strconv.FormatInt(e.N, 10), strconv.Itoa(e.PeriodLength)}
			}
			p.Table([]string{"N", "PERIOD"}, rows)
			printRunID(p, res.RunID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) surveyCompareCmd() *cobra.Command {
	var f extractFlags
	var hi int64
	var markdown bool
	cmd := &cobra.Command{
		Use:   "compare <n>",
		Short: "Compare the period profile of 1/n with its same-length peers",
		Long: `Profile 1/n and every other n up to --hi with the same period length,
then report how common each of n's flags is among those peers and whether
the combination of all of them is unique.`,
		Example: `  repetend survey compare 137 --hi 1000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer %q", args[0])
			}
			if !cmd.Flags().Changed("hi") {
				hi = a.cfg.Survey.DefaultMax
			}
			s, err := a.surveyor(a.resolveBase(cmd, &f))
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			c, err := s.Compare(ctx, target, hi)
			if err != nil {
				return err
			}

			p := newPrinter(a.out(cmd), a.jsonOut)
			switch {
			case p.json:
				return p.JSON(c)
			case markdown:
				return p.Markdown(comparisonMarkdown(c))
			}
			printComparison(p, c)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().Int64Var(&hi, "hi", 0, "Upper end of the peer range (default: survey.default_max)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the comparison as markdown")
	return cmd
}

func printComparison(p *printer, c *survey.Comparison) {
	p.Title("1/%d among %d peers with period length %d (n <= %d, base %d)",
		c.Target, len(c.Peers), c.PeriodLength, c.Hi, c.Base)
	p.Section("Profile")
	printProfile(p, c.Profile)

	p.Section("Prevalence")
	rows := make([][]string, len(c.Prevalence))
	for i, pv := range c.Prevalence {
		mark := ""
		if pv.TargetHas {
			mark = "*"
		}
		rows[i] = []string{string(pv.Flag), fmt.Sprintf("%d/%d", pv.Count, pv.Total), fmt.Sprintf("%.1f%%", pv.Percent), mark}
	}
	p.Table([]string{"FLAG", "COUNT", "SHARE", "TARGET"}, rows)

	p.Section("Verdict")
	verdict := string(c.Verdict)
	switch c.Verdict {
	case survey.VerdictUnique:
		verdict = p.st.Good.Render(verdict)
	case survey.VerdictRare:
		verdict = p.st.Warn.Render(verdict)
	case survey.VerdictNone:
		verdict = p.st.Muted.Render(verdict)
	}
	p.Line("  %s: %d of %d share all of %s", verdict, c.MatchingAll, len(c.Peers), flagList(c.TargetFlags))
	if len(c.OthersAll) > 0 {
		p.Line("  others: %s", joinInts(c.OthersAll))
	}
	printRunID(p, c.RunID)
}

func comparisonMarkdown(c *survey.Comparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# 1/%d among its period-%d peers\n\n", c.Target, c.PeriodLength)
	fmt.Fprintf(&sb, "%d numbers up to %d in base %d share the period length.\n\n", len(c.Peers), c.Hi, c.Base)
	sb.WriteString("| flag | count | share | 1/n |\n|---|---|---|---|\n")
	for _, pv := range c.Prevalence {
		fmt.Fprintf(&sb, "| %s | %d/%d | %.1f%% | %s |\n", pv.Description, pv.Count, pv.Total, pv.Percent, yesNo(pv.TargetHas))
	}
	fmt.Fprintf(&sb, "\n**Verdict: %s.** %d of %d share all of %s.\n", c.Verdict, c.MatchingAll, len(c.Peers), flagList(c.TargetFlags))
	return sb.String()
}

func flagList(flags []analysis.Flag) string {
	if len(flags) == 0 {
		return "no flags"
	}
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

func printRunID(p *printer, id string) {
	if id != "" {
		p.Muted("  run %s", id)
	}
}

func (a *app) surveyRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded survey runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.requireStore()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			p := newPrinter(a.out(cmd), a.jsonOut)

			if len(args) == 1 {
				run, err := st.GetRun(ctx, args[0])
				if err != nil {
					return fmt.Errorf("run %s: %w", args[0], err)
				}
				if p.json {
					return p.JSON(run)
				}
				p.Title("Run %s", run.ID)
				p.Fields([][2]string{
					{"kind", run.Kind},
					{"base", strconv.Itoa(run.Base)},
					{"params", string(run.Params)},
					{"results", strconv.Itoa(run.ResultCount)},
					{"started", run.StartedAt.Format("2006-01-02 15:04:05")},
					{"duration", run.Duration.String()},
				})
				p.Line("%s", truncate(string(run.Results), 2000))
				return nil
			}

			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if p.json {
				return p.JSON(runs)
			}
			if len(runs) == 0 {
				p.Muted("No recorded runs")
				return nil
			}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.Kind, strconv.Itoa(r.Base), string(r.Params), strconv.Itoa(r.ResultCount), r.Duration.String()}
			}
			p.Table([]string{"ID", "KIND", "BASE", "PARAMS", "RESULTS", "DURATION"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 = all)")
	return cmd
}
