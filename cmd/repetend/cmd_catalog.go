package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"repetend/internal/catalog"
)

func (a *app) catalogCmd() *cobra.Command {
	var targets, export bool
	var group string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the reference constants used by analyze",
		Long: `Show the reference constants used by analyze. The embedded catalog is
merged with the file named by catalog.path (or REPETEND_CATALOG); groups in
that file replace same-named embedded groups.`,
		Example: `  repetend catalog
  repetend catalog --group golay
  repetend catalog --targets
  repetend catalog --export > my-catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			if group != "" {
				g, ok := cat.Group(group)
				if !ok {
					return fmt.Errorf("no catalog group %q", group)
				}
				cat = &catalog.Catalog{Groups: []catalog.Group{g}}
			}

			p := newPrinter(a.out(cmd), a.jsonOut)
			switch {
			case export:
				data, err := cat.Marshal()
				if err != nil {
					return err
				}
				_, err = a.out(cmd).Write(data)
				return err
			case targets:
				t := cat.Targets()
				if p.json {
					return p.JSON(t)
				}
				p.Line("%s", joinInts(t))
				return nil
			case p.json:
				return p.JSON(cat.Groups)
			}

			for i, g := range cat.Groups {
				if i > 0 {
					p.Line("")
				}
				title := g.Name
				if g.Modular {
					title += " (modular)"
				}
				p.Title("%s", title)
				if g.Description != "" {
					p.Muted("  %s", g.Description)
				}
				rows := make([][2]string, len(g.Constants))
				for j, k := range g.Constants {
					rows[j] = [2]string{k.Name, strconv.FormatInt(k.Value, 10)}
				}
				p.Fields(rows)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&targets, "targets", false, "Print the distinct values searched for in period digits")
	cmd.Flags().BoolVar(&export, "export", false, "Print the effective catalog as YAML")
	cmd.Flags().StringVarP(&group, "group", "g", "", "Only this group")
	return cmd
}
