// Package checkin turns scan and manual-entry events into attendance
// records.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/metrics"
	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
	"github.com/apper-apps/checkpoint-port-firewall/internal/store"
)

// Event is what a check-in producer (scanner, RFID reader, manual form)
// emits.
type Event struct {
	UserID    string       `json:"user_id"`
	Method    model.Method `json:"method"`
	Timestamp time.Time    `json:"timestamp"`
}

// Service coordinates user resolution and record creation.
type Service struct {
	users      store.UserStore
	attendance store.AttendanceStore
	rec        metrics.Recorder
}

// NewService creates a check-in service. rec may be metrics.Nop{}.
func NewService(users store.UserStore, attendance store.AttendanceStore, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{users: users, attendance: attendance, rec: rec}
}

// HandleCheckIn records an arrival. An unknown or unreachable user never
// blocks the check-in: a placeholder user is synthesized instead, traded
// against weaker identity for unregistered actors. That fallback is counted
// and logged because whether it is intended behavior or a masked user-sync
// bug is still an open product decision.
//
// Status is always Present at creation; lateness against working hours is
// not evaluated here.
func (s *Service) HandleCheckIn(ctx context.Context, evt Event) (model.AttendanceRecord, error) {
	if evt.UserID == "" {
		return model.AttendanceRecord{}, &store.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	user, err := s.users.GetByID(ctx, evt.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("WARNING: user lookup for %s failed, falling back to placeholder: %v", evt.UserID, err)
		}
		user = placeholderUser(evt.UserID)
		s.rec.RecordFallbackUser()
	}

	rec := model.AttendanceRecord{
		UserID:      user.ID,
		UserName:    user.Name,
		CheckInTime: evt.Timestamp.UTC(),
		Method:      evt.Method,
		Status:      model.StatusPresent,
	}
	created, err := s.attendance.Create(ctx, rec)
	if err != nil {
		var verr *store.ValidationError
		if !errors.As(err, &verr) {
			s.rec.RecordStoreError("attendance.create")
		}
		return model.AttendanceRecord{}, err
	}
	s.rec.RecordCheckIn(string(created.Method), string(created.Status))
	return created, nil
}

// CheckOut closes an open record by stamping the check-out time.
func (s *Service) CheckOut(ctx context.Context, id string) (model.AttendanceRecord, error) {
	now := time.Now().UTC()
	updated, err := s.attendance.Update(ctx, id, model.AttendancePatch{CheckOutTime: &now})
	if err != nil {
		var verr *store.ValidationError
		if !errors.Is(err, store.ErrNotFound) && !errors.As(err, &verr) {
			s.rec.RecordStoreError("attendance.update")
		}
		return model.AttendanceRecord{}, err
	}
	s.rec.RecordCheckOut()
	return updated, nil
}

// placeholderUser builds the degraded identity for an unknown identifier.
func placeholderUser(userID string) model.User {
	return model.User{
		ID:    userID,
		Name:  fmt.Sprintf("User %s", userID),
		Email: fmt.Sprintf("%s@example.com", userID),
	}
}
