package report

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

// csvTimeLayout matches the dashboard's exported timestamp format.
const csvTimeLayout = "2006-01-02 15:04:05"

// CSVHeader is the fixed export header row.
var CSVHeader = []string{"Name", "User ID", "Check-in Time", "Check-out Time", "Status", "Method"}

// WriteCSV writes records in their given order as the report export.
// Times are UTC; an open check-in leaves the check-out column empty.
func WriteCSV(w io.Writer, records []model.AttendanceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, rec := range records {
		checkOut := ""
		if rec.CheckOutTime != nil {
			checkOut = rec.CheckOutTime.UTC().Format(csvTimeLayout)
		}
		row := []string{
			rec.UserName,
			rec.UserID,
			rec.CheckInTime.UTC().Format(csvTimeLayout),
			checkOut,
			string(rec.Status),
			string(rec.Method),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVFilename names an export after the day it was produced.
func CSVFilename(now time.Time) string {
	return "attendance-report-" + model.Day(now) + ".csv"
}
