package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/models"
)

const exportSheet = "Employees"

var exportHeader = []string{"KGID", "Name", "Rank", "Metal No", "Unit", "Station", "District", "Mobile 1", "Mobile 2", "Landline", "Email", "Blood Group"}

// WriteEmployeesXLSX writes list as a single styled worksheet.
func WriteEmployeesXLSX(w io.Writer, list []models.Employee) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			e.Kgid, e.Name, e.Rank, e.MetalNumber, directory.EffectiveUnit(e.Unit, e.Station),
			e.Station, e.District, e.Mobile1, e.Mobile2, e.Landline, e.Email, e.BloodGroup,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", e.Kgid, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1A237E"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeader))
	if err := f.SetColWidth(exportSheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
