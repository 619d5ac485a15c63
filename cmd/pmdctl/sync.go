package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/policedirectory/internal/services"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "sync <employees|officers>",
		Short:     "Push a sheet to Firestore",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"employees", "officers"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "employees":
				f, err := services.NewSheetSync(ctx)
				if err != nil {
					return err
				}
				res, err := f.Process(ctx)
				if err != nil {
					return err
				}
				for _, failure := range res.Failures {
					slog.Warn("Row failed.", "kgid", failure.ID, "error", failure.Error)
				}
				fmt.Fprintf(out, "Synced %d of %d rows (%d errors)\n", res.Uploaded, res.Total, res.Errors)
				if res.Snapshot != "" {
					fmt.Fprintf(out, "Snapshot: %s\n", res.Snapshot)
				}
			case "officers":
				f, err := services.NewOfficerAPI(ctx)
				if err != nil {
					return err
				}
				res, err := f.Sync(ctx)
				if err != nil {
					return err
				}
				for _, failure := range res.Errors {
					slog.Warn("Officer failed.", "agid", failure.ID, "error", failure.Error)
				}
				fmt.Fprintln(out, res.Message)
			}
			return nil
		},
	}
}
