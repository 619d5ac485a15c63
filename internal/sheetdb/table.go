// Package sheetdb treats a spreadsheet tab as a table whose first row is the
// header. Rows are addressed by their 1-based sheet row number.
package sheetdb

import (
	"context"
	"errors"
	"strings"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

var ErrNoHeader = errors.New("sheet has no header row")

// Row is one data row keyed by header name.
type Row struct {
	Index  int
	Values map[string]any
}

// String returns the trimmed text of a cell.
func (r Row) String(column string) string {
	return models.StringOf(r.Values[column])
}

// Table is the subset of spreadsheet operations the services rely on.
type Table interface {
	Header(ctx context.Context) ([]string, error)
	Rows(ctx context.Context) ([]Row, error)
	// Append writes values in header order and returns the new row index.
	Append(ctx context.Context, values map[string]any) (int, error)
	// UpdateCells writes only the columns named in values.
	UpdateCells(ctx context.Context, row int, values map[string]any) error
	DeleteRow(ctx context.Context, row int) error
	// EnsureColumn adds name to the header when missing and returns its 0-based index.
	EnsureColumn(ctx context.Context, name string) (int, error)
	SetHeader(ctx context.Context, columns []string) error
}

// Book opens tables by tab name, creating the tab with header when absent.
type Book interface {
	Table(ctx context.Context, name string, header []string) (Table, error)
}

// FindRow returns the first row whose column equals value after trimming.
func FindRow(ctx context.Context, t Table, column, value string) (Row, bool, error) {
	rows, err := t.Rows(ctx)
	if err != nil {
		return Row{}, false, err
	}
	want := strings.TrimSpace(value)
	for _, r := range rows {
		if r.String(column) == want {
			return r, true, nil
		}
	}
	return Row{}, false, nil
}

// RowValues orders values by header, substituting "" for missing columns.
func RowValues(header []string, values map[string]any) []any {
	out := make([]any, len(header))
	for i, h := range header {
		if v, ok := values[h]; ok && v != nil {
			out[i] = v
		} else {
			out[i] = ""
		}
	}
	return out
}

func rowFromCells(index int, header []string, cells []any) Row {
	values := make(map[string]any, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		var v any
		if i < len(cells) {
			v = cells[i]
		}
		if s, ok := v.(string); ok && s == "" {
			v = nil
		}
		values[h] = v
	}
	return Row{Index: index, Values: values}
}

func headerFromCells(cells []any) []string {
	header := make([]string, len(cells))
	for i, c := range cells {
		header[i] = models.StringOf(c)
	}
	return header
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
