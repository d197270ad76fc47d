// Package export renders reservation snapshots into admin-facing
// formats: an Excel occupancy report and an iCalendar feed.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"reserva/internal/calendar"
	"reserva/internal/models"
)

// WeekReport writes an xlsx workbook with one sheet per visible day.
// Each row is an hour slot with the reservations occupying it.
func WeekReport(w io.Writer, days []time.Time, hours []int, reservations []models.Reservation) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, day := range days {
		sheet := day.Format("Mon 2006-01-02")
		if len(sheet) > 31 {
			sheet = sheet[:31]
		}
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		columns := []string{"Slot", "Type", "Status", "Requester", "Comments"}
		for col, name := range columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(sheet, cell, name); err != nil {
				return err
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheet, start, end, headerStyle)

		row := 2
		for _, hour := range hours {
			cellWindow := calendar.NewCell(day, hour)
			label := fmt.Sprintf("%02d:00-%02d:00", hour, hour+1)
			occupants := calendar.Occupants(cellWindow, reservations)
			if len(occupants) == 0 {
				if err := writeRow(f, sheet, row, []any{label, "", "", "", ""}); err != nil {
					return err
				}
				row++
				continue
			}
			for _, r := range occupants {
				values := []any{label, string(r.Type()), string(r.Status), r.Requester.Name, r.Comments}
				if err := writeRow(f, sheet, row, values); err != nil {
					return err
				}
				row++
			}
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, val := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}
