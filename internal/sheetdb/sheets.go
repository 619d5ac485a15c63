package sheetdb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sheets "google.golang.org/api/sheets/v4"
)

// SheetsTable is a Table backed by one tab of a Google spreadsheet.
type SheetsTable struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsTable(srv *sheets.Service, spreadsheetID, sheetName string) *SheetsTable {
	return &SheetsTable{srv: srv, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// a1 quotes the tab name for use in an A1 range.
func (t *SheetsTable) a1(cells string) string {
	name := "'" + strings.ReplaceAll(t.sheetName, "'", "''") + "'"
	if cells == "" {
		return name
	}
	return name + "!" + cells
}

func (t *SheetsTable) values(ctx context.Context) ([][]any, error) {
	resp, err := t.srv.Spreadsheets.Values.Get(t.spreadsheetID, t.a1("")).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", t.sheetName, err)
	}
	return resp.Values, nil
}

func (t *SheetsTable) Header(ctx context.Context) ([]string, error) {
	resp, err := t.srv.Spreadsheets.Values.Get(t.spreadsheetID, t.a1("1:1")).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %q: %w", t.sheetName, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return headerFromCells(resp.Values[0]), nil
}

func (t *SheetsTable) Rows(ctx context.Context) ([]Row, error) {
	values, err := t.values(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	header := headerFromCells(values[0])
	rows := make([]Row, 0, len(values)-1)
	for i, cells := range values[1:] {
		rows = append(rows, rowFromCells(i+2, header, cells))
	}
	return rows, nil
}

func (t *SheetsTable) Append(ctx context.Context, values map[string]any) (int, error) {
	header, err := t.Header(ctx)
	if err != nil {
		return 0, err
	}
	if len(header) == 0 {
		return 0, ErrNoHeader
	}
	vr := &sheets.ValueRange{Values: [][]any{RowValues(header, values)}}
	resp, err := t.srv.Spreadsheets.Values.Append(t.spreadsheetID, t.a1("A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to append to %q: %w", t.sheetName, err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return rowFromRange(resp.Updates.UpdatedRange), nil
}

func (t *SheetsTable) UpdateCells(ctx context.Context, row int, values map[string]any) error {
	header, err := t.Header(ctx)
	if err != nil {
		return err
	}
	var data []*sheets.ValueRange
	for col, v := range values {
		c := indexOf(header, col)
		if c < 0 {
			continue
		}
		if v == nil {
			v = ""
		}
		data = append(data, &sheets.ValueRange{
			Range:  t.a1(fmt.Sprintf("%s%d", ColumnLetter(c), row)),
			Values: [][]any{{v}},
		})
	}
	if len(data) == 0 {
		return nil
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data}
	if _, err := t.srv.Spreadsheets.Values.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update row %d of %q: %w", row, t.sheetName, err)
	}
	return nil
}

func (t *SheetsTable) sheetID(ctx context.Context) (int64, error) {
	ss, err := t.srv.Spreadsheets.Get(t.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == t.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", t.sheetName)
}

func (t *SheetsTable) DeleteRow(ctx context.Context, row int) error {
	id, err := t.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:         id,
				Dimension:       "ROWS",
				StartIndex:      int64(row - 1),
				EndIndex:        int64(row),
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}}}
	if _, err := t.srv.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete row %d of %q: %w", row, t.sheetName, err)
	}
	return nil
}

func (t *SheetsTable) EnsureColumn(ctx context.Context, name string) (int, error) {
	header, err := t.Header(ctx)
	if err != nil {
		return 0, err
	}
	if i := indexOf(header, name); i >= 0 {
		return i, nil
	}
	col := len(header)
	vr := &sheets.ValueRange{Values: [][]any{{name}}}
	_, err = t.srv.Spreadsheets.Values.Update(t.spreadsheetID, t.a1(ColumnLetter(col)+"1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to add column %q: %w", name, err)
	}
	return col, nil
}

func (t *SheetsTable) SetHeader(ctx context.Context, columns []string) error {
	cells := make([]any, len(columns))
	for i, c := range columns {
		cells[i] = c
	}
	vr := &sheets.ValueRange{Values: [][]any{cells}}
	_, err := t.srv.Spreadsheets.Values.Update(t.spreadsheetID, t.a1("A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header of %q: %w", t.sheetName, err)
	}
	return nil
}

// SheetsBook opens tabs of one spreadsheet, adding missing tabs on demand.
type SheetsBook struct {
	srv           *sheets.Service
	spreadsheetID string
}

func NewSheetsBook(srv *sheets.Service, spreadsheetID string) *SheetsBook {
	return &SheetsBook{srv: srv, spreadsheetID: spreadsheetID}
}

func (b *SheetsBook) Table(ctx context.Context, name string, header []string) (Table, error) {
	t := NewSheetsTable(b.srv, b.spreadsheetID, name)
	if _, err := t.sheetID(ctx); err == nil {
		return t, nil
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
	}}}
	if _, err := b.srv.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("failed to add sheet %q: %w", name, err)
	}
	if len(header) > 0 {
		if err := t.SetHeader(ctx, header); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ColumnLetter converts a 0-based column index to A1 letters.
func ColumnLetter(index int) string {
	var out []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		out = append([]byte{byte('A' + (n-1)%26)}, out...)
	}
	return string(out)
}

var rangeRow = regexp.MustCompile(`![A-Z]+(\d+)`)

// rowFromRange extracts the first row number from a range like 'Tab'!A7:J7.
func rowFromRange(r string) int {
	m := rangeRow.FindStringSubmatch(r)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
