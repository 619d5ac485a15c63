package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/importer"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
)

type importOptions struct {
	dryRun bool
}

// importSummary counts what happened to each record of an import file.
type importSummary struct {
	Added     int
	Invalid   int
	Duplicate int
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <file.csv|file.xlsx|file.xls>",
		Short: "Append employees from a spreadsheet to the employees sheet",
		Long: `Append employees from a spreadsheet to the employees sheet.

Rows are validated the same way the employee API validates them. Invalid
rows and KGIDs already present in the sheet are reported and skipped. Run
"pmdctl sync employees" afterwards to push the new rows to Firestore.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := importer.ReadRows(f, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			records := importer.Employees(rows)

			var sheet sheetdb.Table
			if opts.dryRun {
				sheet = sheetdb.NewMemoryTable(models.EmployeeColumns...)
			} else {
				sheet, err = openEmployeesSheet(ctx)
				if err != nil {
					return err
				}
			}

			sum, err := appendEmployees(ctx, sheet, records, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			verb := "Added"
			if opts.dryRun {
				verb = "Would add"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d employees (%d invalid, %d duplicate)\n", verb, sum.Added, sum.Invalid, sum.Duplicate)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate only, do not write to the sheet")
	return cmd
}

func openEmployeesSheet(ctx context.Context) (sheetdb.Table, error) {
	sheetID := gcp.GetEnv("EMPLOYEES_SHEET_ID", "")
	if sheetID == "" {
		return nil, fmt.Errorf("EMPLOYEES_SHEET_ID environment variable must be set")
	}
	opts, err := gcp.ClientOptions(ctx, gcp.GetEnv("CREDENTIALS_FILE", ""))
	if err != nil {
		return nil, err
	}
	srv, err := gcp.NewSheetsService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sheetdb.NewSheetsTable(srv, sheetID, gcp.GetEnv("EMPLOYEES_SHEET_NAME", "Emp Profiles")), nil
}

// appendEmployees writes every valid record whose KGID is not yet in sheet.
// Problems are reported line by line to report.
func appendEmployees(ctx context.Context, sheet sheetdb.Table, records []importer.Record, report io.Writer) (importSummary, error) {
	var sum importSummary

	header, err := sheet.Header(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to read sheet header: %w", err)
	}
	if len(header) == 0 {
		if err := sheet.SetHeader(ctx, models.EmployeeColumns); err != nil {
			return sum, fmt.Errorf("failed to create sheet header: %w", err)
		}
	}

	rows, err := sheet.Rows(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to read sheet: %w", err)
	}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if kgid := r.String("kgid"); kgid != "" {
			seen[kgid] = true
		}
	}

	for _, rec := range records {
		if rec.Err != nil {
			sum.Invalid++
			fmt.Fprintf(report, "line %d: %v\n", rec.Line, rec.Err)
			continue
		}
		kgid := rec.Employee.Kgid
		if seen[kgid] {
			sum.Duplicate++
			fmt.Fprintf(report, "line %d: kgid %s already exists\n", rec.Line, kgid)
			continue
		}
		if _, err := sheet.Append(ctx, rec.Employee.Row()); err != nil {
			return sum, fmt.Errorf("failed to append line %d: %w", rec.Line, err)
		}
		seen[kgid] = true
		sum.Added++
		slog.Debug("Employee appended.", "kgid", kgid, "line", rec.Line)
	}
	return sum, nil
}
