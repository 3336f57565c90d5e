package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const workbookSheet = "Attendance"

// WriteWorkbook renders v as a single-sheet .xlsx document. Timestamps are shown in loc.
func WriteWorkbook(w io.Writer, v View, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		return fmt.Errorf("workbook sheet: %w", err)
	}

	var rows [][]interface{}
	if v.View == PeriodDay {
		rows = append(rows, []interface{}{"Employee", "Role", "Date", "Check In", "Check Out", "Work Hours", "Extra Hours", "Status", "Late Arrival"})
		for _, row := range v.Days {
			late := "No"
			if row.LateArrival {
				late = "Yes"
			}
			rows = append(rows, []interface{}{
				row.Name, row.Role, row.Date,
				clockTime(row.CheckInTime, loc), clockTime(row.CheckOutTime, loc),
				row.WorkedHours, row.ExtraHours, string(row.Status), late,
			})
		}
	} else {
		rows = append(rows, []interface{}{"Employee", "Role", "Days Present", "Total Hours", "Extra Hours"})
		for _, row := range v.Employees {
			rows = append(rows, []interface{}{row.Name, row.Role, row.DaysPresent, row.TotalHours, row.ExtraHours})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(workbookSheet, cell, &values); err != nil {
			return fmt.Errorf("workbook row %d: %w", i+1, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(workbookSheet, "A1", lastCol+"1", header); err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}
	if err := f.SetColWidth(workbookSheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("workbook width: %w", err)
	}

	return f.Write(w)
}

func clockTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "--"
	}
	return t.In(loc).Format("15:04")
}
