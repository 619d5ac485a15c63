package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/policedirectory/internal/cache"
	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/importer"
	"github.com/Lllllllleong/policedirectory/internal/models"
)

type exportOptions struct {
	out      string
	district string
	station  string
	hidden   bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write cached employees to an XLSX file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cache.Open(rootOpts.CachePath)
			if err != nil {
				return err
			}
			defer c.Close()

			list, err := c.Employees(ctx)
			if err != nil {
				return err
			}
			filter := directory.Filter{District: opts.district, Station: opts.station, IncludeHidden: opts.hidden}
			var selected []models.Employee
			for _, e := range list {
				if filter.Match(e) {
					selected = append(selected, e)
				}
			}

			f, err := os.Create(opts.out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", opts.out, err)
			}
			if err := importer.WriteEmployeesXLSX(f, selected); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", opts.out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d employees to %s\n", len(selected), opts.out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "employees.xlsx", "output file")
	cmd.Flags().StringVar(&opts.district, "district", "", "only this district")
	cmd.Flags().StringVar(&opts.station, "station", "", "only this station")
	cmd.Flags().BoolVar(&opts.hidden, "include-hidden", false, "include hidden employees")
	return cmd
}
