// Package importer reads employee rows from CSV and Excel files and writes
// directory exports as XLSX.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxXLSRows = 100000

var ErrEmptySheet = errors.New("worksheet is empty")

// ReadRows returns the cells of the first worksheet of a .csv, .xls or
// .xlsx file. The format is chosen by the filename extension.
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var rows [][]string
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		cr := csv.NewReader(bytes.NewReader(data))
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, err = cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
	case ".xls":
		wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("failed to open xls: %w", err)
		}
		if wb.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows = wb.ReadAllCells(maxXLSRows)
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx: %w", err)
		}
		defer func() { _ = f.Close() }()
		sheet := f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err = f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}
