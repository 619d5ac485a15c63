package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/policedirectory/internal/refdata"
)

// NewStationsCommand creates the stations command.
func NewStationsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stations [district]",
		Short: "List districts, or the stations of one district",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, d := range refdata.Districts() {
					fmt.Fprintf(out, "%s (%d)\n", d, len(refdata.Stations(d)))
				}
				return nil
			}
			if !refdata.IsKnownDistrict(args[0]) {
				return fmt.Errorf("unknown district %q", args[0])
			}
			fmt.Fprintln(out, strings.Join(refdata.Stations(args[0]), "\n"))
			return nil
		},
	}
}
