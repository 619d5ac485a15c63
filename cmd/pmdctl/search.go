package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/policedirectory/internal/cache"
	"github.com/Lllllllleong/policedirectory/internal/directory"
)

type searchOptions struct {
	filter   string
	limit    int
	officers bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the local directory cache",
		Long: `Search the local directory cache by relevance.

The filter narrows which fields are compared: all, name, kgid, mobile,
station, rank, metal, unit, district, email or blood. Run "pmdctl pull"
first to fill the cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cache.Open(rootOpts.CachePath)
			if err != nil {
				return err
			}
			defer c.Close()

			pulledAt, err := c.PulledAt(ctx)
			if err != nil {
				return err
			}
			if pulledAt.IsZero() {
				return fmt.Errorf("cache %s is empty, run pmdctl pull first", rootOpts.CachePath)
			}

			out := cmd.OutOrStdout()
			if opts.officers {
				list, err := c.Officers(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "SCORE\tAGID\tNAME\tRANK\tSTATION\tDISTRICT\tMOBILE")
				for _, r := range directory.SearchOfficers(list, args[0], opts.filter, opts.limit) {
					o := r.Item
					fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Score, o.Agid, o.Name, o.Rank, o.Station, o.District, o.Mobile)
				}
				return finish(tw, out, pulledAt)
			}

			list, err := c.Employees(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SCORE\tKGID\tNAME\tRANK\tSTATION\tDISTRICT\tMOBILE")
			for _, r := range directory.SearchEmployees(list, args[0], opts.filter, opts.limit) {
				e := r.Item
				fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Score, e.Kgid, e.Name, e.Rank, e.Station, e.District, e.Mobile1)
			}
			return finish(tw, out, pulledAt)
		},
	}

	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "all", "field filter")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum results")
	cmd.Flags().BoolVar(&opts.officers, "officers", false, "search officers instead of employees")
	return cmd
}

func finish(tw *tabwriter.Writer, out io.Writer, pulledAt time.Time) error {
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "(cache from %s)\n", pulledAt.Local().Format(time.DateTime))
	return err
}
