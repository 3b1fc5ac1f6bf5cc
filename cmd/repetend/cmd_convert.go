package main

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"repetend/internal/period"
)

type conversionOutput struct {
	Value    string `json:"value"`
	FromBase int    `json:"from_base"`
	ToBase   int    `json:"to_base"`
	Digits   []int  `json:"digits"`
	Rendered string `json:"rendered"`
	Length   int    `json:"length"`
}

func (a *app) toBaseCmd() *cobra.Command {
	var to, from int
	cmd := &cobra.Command{
		Use:   "tobase <value>",
		Short: "Rewrite a non-negative integer in another base",
		Long: `Rewrite a non-negative integer in another base. The value is read in
--from (default 10); leading zeros carry no value.`,
		Example: `  repetend tobase 729927 --base 3
  repetend tobase ff --from 16 --base 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := period.ParseDigits(args[0], from)
			if err != nil {
				return err
			}
			digits, err := period.ToBase(v, to)
			if err != nil {
				return err
			}
			out := conversionOutput{
				Value:    v.String(),
				FromBase: from,
				ToBase:   to,
				Digits:   digits,
				Rendered: period.FormatDigits(digits),
				Length:   len(digits),
			}
			p := newPrinter(a.out(cmd), a.jsonOut)
			if p.json {
				return p.JSON(out)
			}
			p.Title("%s (base %d) in base %d", args[0], from, to)
			p.Fields([][2]string{
				{"digits", out.Rendered},
				{"length", strconv.Itoa(out.Length)},
			})
			return nil
		},
	}
	cmd.Flags().IntVarP(&to, "base", "b", 3, "Target radix")
	cmd.Flags().IntVar(&from, "from", 10, "Source radix of the input")
	return cmd
}

type orderOutput struct {
	N            string `json:"n"`
	Base         int    `json:"base"`
	Residual     string `json:"coprime_residual"`
	Order        int    `json:"order,omitempty"`
	PeriodLength int    `json:"period_length"`
	Coprime      bool   `json:"coprime"`
}

func (a *app) orderCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "order <n>",
		Short: "Multiplicative order of the base modulo n",
		Long: `Print the multiplicative order of the base modulo n, when the two are
coprime, and the period length of 1/n, which is the order modulo the part
of n coprime to the base.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, ok := new(big.Int).SetString(args[0], 10)
			if !ok {
				return fmt.Errorf("invalid integer %q", args[0])
			}
			base := a.resolveBase(cmd, &f)
			length, err := period.PeriodLength(n, base)
			if err != nil {
				return err
			}
			residual := period.CoprimeResidual(n, base)
			out := orderOutput{
				N:            n.String(),
				Base:         base,
				Residual:     residual.String(),
				PeriodLength: length,
				Coprime:      residual.Cmp(n) == 0,
			}
			if out.Coprime {
				if out.Order, err = period.MultiplicativeOrder(base, n, a.resolveMaxDigits(cmd, &f)); err != nil {
					return err
				}
			}

			p := newPrinter(a.out(cmd), a.jsonOut)
			if p.json {
				return p.JSON(out)
			}
			p.Title("ord_%s(%d)", n, base)
			order := "undefined (not coprime)"
			if out.Coprime {
				order = strconv.Itoa(out.Order)
			}
			p.Fields([][2]string{
				{"order", order},
				{"coprime residual", out.Residual},
				{"period length of 1/n", strconv.Itoa(out.PeriodLength)},
			})
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
