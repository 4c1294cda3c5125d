// Package session maintains the daily summary rows read by the dashboard.
// Summaries are written out of band by the worker; the HTTP layer only
// reads them.
package session

import (
	"context"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
	"github.com/apper-apps/checkpoint-port-firewall/internal/store"
)

// Service recomputes per-day summaries from the attendance store.
type Service struct {
	attendance      store.AttendanceStore
	sessions        store.SessionStore
	totalRegistered int
}

// NewService creates a summary service.
func NewService(attendance store.AttendanceStore, sessions store.SessionStore, totalRegistered int) *Service {
	return &Service{attendance: attendance, sessions: sessions, totalRegistered: totalRegistered}
}

// RecomputeDay rebuilds the summary for one calendar date from that day's
// records and upserts it. Counts are derived fresh each time, so replaying a
// check-in event is harmless.
func (s *Service) RecomputeDay(ctx context.Context, date string) (model.Session, error) {
	records, err := s.attendance.ListByDate(ctx, date)
	if err != nil {
		return model.Session{}, err
	}

	sess := model.Session{Date: date, TotalRegistered: s.totalRegistered}
	var start, end *time.Time
	for _, rec := range records {
		if rec.Status == model.StatusPresent || rec.Status == model.StatusLate {
			sess.TotalPresent++
		}
		in := rec.CheckInTime
		if start == nil || in.Before(*start) {
			t := in
			start = &t
		}
		last := in
		if rec.CheckOutTime != nil && rec.CheckOutTime.After(last) {
			last = *rec.CheckOutTime
		}
		if end == nil || last.After(*end) {
			t := last
			end = &t
		}
	}
	sess.StartTime = start
	sess.EndTime = end

	return s.sessions.Upsert(ctx, sess)
}
