package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// Filename builds the download name for a date-ranged export, e.g.
// attendance_2024-01-01_to_2024-01-31.csv.
func Filename(prefix string, from, to time.Time) string {
	return fmt.Sprintf("%s_%s_to_%s.csv", prefix, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// DateRange parses start/end query values (2006-01-02), defaulting to the
// last 30 days. The end date is extended to end-of-day so records on the
// boundary date are included.
func DateRange(startStr, endStr string, now time.Time) (time.Time, time.Time) {
	end := now
	start := end.AddDate(0, 0, -30)
	if startStr != "" {
		if t, err := time.Parse("2006-01-02", startStr); err == nil {
			start = t
		}
	}
	if endStr != "" {
		if t, err := time.Parse("2006-01-02", endStr); err == nil {
			end = t.Add(24*time.Hour - time.Second)
		}
	}
	return start, end
}

// Write streams a header row and data rows as CSV.
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
