package main

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"repetend/internal/analysis"
	"repetend/internal/logging"
	"repetend/internal/period"
)

type analyzeOutput struct {
	*analysis.Report
	Profile *analysis.Profile `json:"profile"`
	Cached  bool              `json:"cached"`
}

func (a *app) analyzeCmd() *cobra.Command {
	var f extractFlags
	var markdown bool
	cmd := &cobra.Command{
		Use:   "analyze <p/q>",
		Short: "Scan the period of p/q for patterns and catalog matches",
		Long: `Expand p/q and scan its repeating block: digit statistics, runs,
palindromes, arithmetic progressions, occurrences of catalog values as
digit substrings, and modular relations between the period value and the
modular catalog groups.`,
		Example: `  repetend analyze 1/137
  repetend analyze 1/92 --markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, q, err := period.ParseFraction(args[0])
			if err != nil {
				return err
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			e, cached, err := a.expand(ctx, p, q, a.resolveBase(cmd, &f), a.resolveMaxDigits(cmd, &f))
			if err != nil {
				return err
			}
			timer := logging.StartTimer(logging.CategoryAnalysis, "Analyze "+args[0])
			report := analysis.Analyze(e, cat)
			prof, err := analysis.ProfileExpansion(e)
			timer.Stop()
			if err != nil {
				return err
			}

			pr := newPrinter(a.out(cmd), a.jsonOut)
			switch {
			case pr.json:
				return pr.JSON(analyzeOutput{Report: report, Profile: prof, Cached: cached})
			case markdown:
				return pr.Markdown(reportMarkdown(report, prof))
			}
			printReport(pr, report, prof)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the report as markdown")
	return cmd
}

func printReport(p *printer, r *analysis.Report, prof *analysis.Profile) {
	p.Title("Analysis of %s in base %d", r.Fraction, r.Base)
	p.Fields([][2]string{
		{"period", truncate(r.Period, 120)},
		{"length", strconv.Itoa(r.PeriodLength)},
		{"offset", strconv.Itoa(r.Offset)},
	})
	if r.PeriodLength == 0 {
		p.Muted("  terminating expansion: nothing repeats")
		return
	}

	s := r.Stats
	p.Section("Digits")
	p.Fields([][2]string{
		{"sum", fmt.Sprintf("%d (mod 9 = %d)", s.DigitSum, s.DigitSumMod9)},
		{"mean", fmt.Sprintf("%.4f", s.Mean)},
		{"variance", fmt.Sprintf("%.4f", s.Variance)},
		{"entropy", fmt.Sprintf("%.4f bits", s.Entropy)},
		{"distinct", fmt.Sprintf("%d of %d", s.Distinct, r.Base)},
		{"most common", digitCounts(s.MostCommon)},
		{"least common", digitCounts(s.LeastCommon)},
	})

	p.Section("Patterns")
	var rows [][]string
	for _, run := range r.Runs {
		rows = append(rows, []string{"run", strings.Repeat(period.FormatDigits([]int{run.Digit}), run.Length), strconv.Itoa(run.Position)})
	}
	if r.Palindromes.Full {
		rows = append(rows, []string{"palindrome", "whole period", "0"})
	}
	for _, pal := range r.Palindromes.Partial {
		rows = append(rows, []string{"palindrome", pal.Digits, strconv.Itoa(pal.Position)})
	}
	for _, prog := range r.Progressions {
		rows = append(rows, []string{"progression", fmt.Sprintf("%v (d=%d)", prog.Digits, prog.Difference), strconv.Itoa(prog.Position)})
	}
	if len(rows) == 0 {
		p.Muted("  none")
	} else {
		p.Table([]string{"KIND", "DIGITS", "POSITION"}, rows)
	}

	if len(r.Subsequences) > 0 {
		p.Section("Catalog values in the digits")
		rows = rows[:0]
		for _, m := range r.Subsequences {
			rows = append(rows, []string{strconv.FormatInt(m.Value, 10), strconv.Itoa(m.Count), joinInts(m.Positions)})
		}
		p.Table([]string{"VALUE", "COUNT", "POSITIONS"}, rows)
	}
	if len(r.Modular) > 0 {
		p.Section("Modular relations")
		rows = rows[:0]
		for _, m := range r.Modular {
			rows = append(rows, []string{m.Constant.QualifiedName(), strconv.FormatInt(m.Constant.Value, 10), string(m.Kind)})
		}
		p.Table([]string{"CONSTANT", "VALUE", "RELATION"}, rows)
	}
	if len(r.Connections) > 0 {
		p.Section("Connections")
		for _, c := range r.Connections {
			p.Line("  %s %s (%d)", c.Kind, c.Constant.QualifiedName(), c.Constant.Value)
		}
	}

	if prof != nil {
		p.Section("Profile")
		printProfile(p, prof)
	}
}

func printProfile(p *printer, prof *analysis.Profile) {
	p.Fields([][2]string{
		{"digit sum", strconv.Itoa(prof.DigitSum)},
		{"binary ones/zeros", fmt.Sprintf("%d/%d", prof.BinaryOnes, prof.BinaryZeros)},
		{"ternary length", strconv.Itoa(prof.TernaryLength)},
		{"octal length", strconv.Itoa(prof.OctalLength)},
		{"hex length", strconv.Itoa(prof.HexLength)},
		{"period factors", periodFactors(prof)},
		{"digit sum factors", fmt.Sprintf("%s (3² divides: %t)", joinFactors(prof.DigitSumFactors), prof.DigitSumHas3Squared)},
	})
	var flags []string
	for _, f := range analysis.Flags {
		if prof.Has(f) {
			flags = append(flags, string(f))
		}
	}
	if len(flags) == 0 {
		p.Muted("  no flags")
		return
	}
	p.Line("  flags: %s", p.st.Good.Render(strings.Join(flags, ", ")))
}

func periodFactors(prof *analysis.Profile) string {
	if prof.PeriodTooLarge {
		return "too large to factor"
	}
	return joinFactors(prof.PeriodFactors)
}

func joinFactors(fs []int64) string {
	if len(fs) == 0 {
		return "-"
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatInt(f, 10)
	}
	return strings.Join(parts, " × ")
}

func digitCounts(dc []analysis.DigitCount) string {
	parts := make([]string, len(dc))
	for i, c := range dc {
		parts[i] = fmt.Sprintf("%d×%d", c.Digit, c.Count)
	}
	return strings.Join(parts, " ")
}

// reportMarkdown renders a report as a markdown document.
func reportMarkdown(r *analysis.Report, prof *analysis.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s in base %d\n\n", r.Fraction, r.Base)
	fmt.Fprintf(&sb, "Period `%s` of length **%d** after %d pre-period digits.\n\n", truncate(r.Period, 200), r.PeriodLength, r.Offset)
	if r.PeriodLength == 0 {
		sb.WriteString("The expansion terminates.\n")
		return sb.String()
	}

	s := r.Stats
	sb.WriteString("## Digits\n\n| statistic | value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| sum | %d (mod 9 = %d) |\n", s.DigitSum, s.DigitSumMod9)
	fmt.Fprintf(&sb, "| mean | %.4f |\n| variance | %.4f |\n| entropy | %.4f bits |\n", s.Mean, s.Variance, s.Entropy)
	fmt.Fprintf(&sb, "| most common | %s |\n\n", digitCounts(s.MostCommon))

	if len(r.Subsequences) > 0 {
		sb.WriteString("## Catalog values in the digits\n\n")
		for _, m := range r.Subsequences {
			fmt.Fprintf(&sb, "- `%d` at %s\n", m.Value, joinInts(m.Positions))
		}
		sb.WriteString("\n")
	}
	if len(r.Modular) > 0 {
		sb.WriteString("## Modular relations\n\n")
		for _, m := range r.Modular {
			fmt.Fprintf(&sb, "- %s (%d): %s\n", m.Constant.QualifiedName(), m.Constant.Value, m.Kind)
		}
		sb.WriteString("\n")
	}
	if prof != nil {
		sb.WriteString("## Factors\n\n")
		fmt.Fprintf(&sb, "- period value: %s\n", periodFactors(prof))
		fmt.Fprintf(&sb, "- digit sum: %s\n", joinFactors(prof.DigitSumFactors))
		fmt.Fprintf(&sb, "- hex length: %d\n\n", prof.HexLength)
		sb.WriteString("## Flags\n\n")
		for _, f := range analysis.Flags {
			mark := " "
			if prof.Has(f) {
				mark = "x"
			}
			fmt.Fprintf(&sb, "- [%s] %s\n", mark, f.Description())
		}
	}
	return sb.String()
}

func (a *app) compareCmd() *cobra.Command {
	var to, from int
	cmd := &cobra.Command{
		Use:   "compare <n>",
		Short: "Contrast the period length of 1/n with the length of its period value",
		Long: `Contrast two different quantities: the period length of 1/n in --to,
and the number of --to digits needed to write the --from period of 1/n as
an integer.`,
		Example: `  repetend compare 92 --to 3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, ok := new(big.Int).SetString(args[0], 10)
			if !ok {
				return fmt.Errorf("invalid integer %q", args[0])
			}
			c, err := analysis.CompareQuantities(n, from, to)
			if err != nil {
				return err
			}
			p := newPrinter(a.out(cmd), a.jsonOut)
			if p.json {
				return p.JSON(c)
			}
			p.Title("1/%s: base %d period against base %d", c.N, c.FromBase, c.ToBase)
			p.Fields([][2]string{
				{fmt.Sprintf("period length in base %d", c.FromBase), strconv.Itoa(c.SourcePeriodLength)},
				{fmt.Sprintf("period length in base %d", c.ToBase), strconv.Itoa(c.PeriodLengthInBase)},
				{fmt.Sprintf("period value length in base %d", c.ToBase), strconv.Itoa(c.RepresentationLength)},
				{"expected value length", fmt.Sprintf("%.4f", c.Expected)},
				{"doubles", yesNo(c.Doubles)},
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&to, "to", 3, "Radix to compare against")
	cmd.Flags().IntVar(&from, "from", 10, "Radix of the source period")
	return cmd
}

func (a *app) rationalCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "rational <p/q>",
		Short: "Reduce p/q and expand its reciprocal q/p",
		Example: `  repetend rational 137036/1000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, q, err := period.ParseFraction(args[0])
			if err != nil {
				return err
			}
			r, err := analysis.Rational(p, q, a.resolveBase(cmd, &f), a.resolveMaxDigits(cmd, &f))
			if err != nil {
				return err
			}
			pr := newPrinter(a.out(cmd), a.jsonOut)
			if pr.json {
				return pr.JSON(r)
			}
			pr.Title("%s/%s = %s/%s (gcd %s)", r.Numerator, r.Denominator, r.ReducedNumerator, r.ReducedDenominator, r.GCD)
			pr.Fields([][2]string{
				{"reciprocal", fmt.Sprintf("%s/%s", r.ReducedDenominator, r.ReducedNumerator)},
				{"expansion", truncate(r.Reciprocal.String(), 80)},
				{"period length", strconv.Itoa(r.PeriodLength)},
				{"digit sum", strconv.Itoa(r.DigitSum)},
				{"contains 729", yesNo(r.Contains729)},
			})
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
