package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List the supported organism/enzyme databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			ctx := cmd.Context()

			type row struct{ organism, enzyme, source string }
			var rows []row
			switch a.cfg.Guides.Backend {
			case "bam":
				for _, db := range a.cfg.Databases() {
					path, err := a.cfg.GuidePath(db[0], db[1])
					if err != nil {
						return err
					}
					rows = append(rows, row{db[0], db[1], path})
				}
			default:
				dbs, err := store.Databases(ctx)
				if err != nil {
					return err
				}
				for _, db := range dbs {
					n, err := store.GuideCount(ctx, db.Organism, db.Enzyme)
					if err != nil {
						return err
					}
					rows = append(rows, row{db.Organism, db.Enzyme, humanize.Comma(n) + " guides in " + store.Path()})
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ORGANISM\tENZYME\tSOURCE\n")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.organism, r.enzyme, r.source)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			organisms, err := store.Organisms(ctx)
			if err != nil {
				return err
			}
			if len(organisms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nNo organisms imported. Run: vibe-guidescan import <organism> --chr2acc <file>")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout())
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ORGANISM\tGENES\n")
			for _, org := range organisms {
				n, err := store.GeneCount(ctx, org)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", org, humanize.Comma(n))
			}
			return w.Flush()
		},
	}
}
