package audit

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{
	"ID", "Action", "Customer", "Phone", "Service", "Staff",
	"Date", "Start", "End", "Outcome", "Created At",
}

// ExportXLSX writes journal entries as a spreadsheet for the salon's
// back office.
func ExportXLSX(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for row, e := range entries {
		values := []interface{}{
			e.ID, e.Action, e.CustomerName, e.CustomerPhone, e.Service,
			e.Staff, e.Date, e.StartTime, e.EndTime, e.Outcome,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
