// Package report computes the derived views behind the dashboard: daily
// stats, multi-day trends, table filtering/sorting and CSV export. All
// functions are pure; they never mutate their input.
package report

import (
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

// RecentWindow is how far back a check-in still counts as "recent".
const RecentWindow = time.Hour

// DailyStats is the computed summary for one day. Not persisted.
type DailyStats struct {
	TotalPresent    int `json:"total_present"`
	TotalRegistered int `json:"total_registered"`
	AttendanceRate  int `json:"attendance_rate"`
	RecentCheckIns  int `json:"recent_check_ins"`
}

// ComputeDailyStats summarizes one day's records. Present and Late both
// count toward attendance. The rate is 0 when nobody is registered rather
// than dividing by zero. Records check-dated after now never count as
// recent.
func ComputeDailyStats(records []model.AttendanceRecord, totalRegistered int, now time.Time) DailyStats {
	stats := DailyStats{TotalRegistered: totalRegistered}
	cutoff := now.Add(-RecentWindow)
	for _, rec := range records {
		if rec.Status == model.StatusPresent || rec.Status == model.StatusLate {
			stats.TotalPresent++
		}
		if !rec.CheckInTime.After(now) && !rec.CheckInTime.Before(cutoff) {
			stats.RecentCheckIns++
		}
	}
	if totalRegistered > 0 {
		stats.AttendanceRate = int(float64(stats.TotalPresent)/float64(totalRegistered)*100 + 0.5)
	}
	return stats
}

// DayRecords pairs a calendar date with that day's records.
type DayRecords struct {
	Date    string
	Records []model.AttendanceRecord
}

// TrendPoint is one day in the attendance trend, counts independent per day.
type TrendPoint struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
}

// ComputeTrend turns an ordered day sequence (oldest first) into trend
// points. No state carries over between days.
func ComputeTrend(days []DayRecords) []TrendPoint {
	points := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		pt := TrendPoint{Date: day.Date}
		for _, rec := range day.Records {
			switch rec.Status {
			case model.StatusPresent:
				pt.Present++
			case model.StatusLate:
				pt.Late++
			}
		}
		points = append(points, pt)
	}
	return points
}
