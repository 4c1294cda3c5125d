package store

import (
	"context"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

// AttendanceStore is the record-store contract for attendance rows.
// List operations return newest check-in first and never a nil slice.
// Date arguments are YYYY-MM-DD and bound to UTC calendar days, matching
// the UTC timestamps on the records themselves.
type AttendanceStore interface {
	ListAll(ctx context.Context) ([]model.AttendanceRecord, error)
	GetByID(ctx context.Context, id string) (model.AttendanceRecord, error)
	ListByDate(ctx context.Context, date string) ([]model.AttendanceRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
	Create(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	Update(ctx context.Context, id string, patch model.AttendancePatch) (model.AttendanceRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserStore persists registered users.
type UserStore interface {
	ListAll(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	Search(ctx context.Context, query string) ([]model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
}

// SessionStore persists daily summary rows, written by the worker.
type SessionStore interface {
	GetByDate(ctx context.Context, date string) (model.Session, error)
	Upsert(ctx context.Context, s model.Session) (model.Session, error)
}

// DeviceStore tracks check-in producer devices and their refresh tokens.
type DeviceStore interface {
	UpsertDevice(ctx context.Context, deviceID string) error
	SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, token string) error
}

// validateNewRecord is the single validation boundary for creates. Both
// backends call it so malformed input fails fast instead of producing
// garbage rows.
func validateNewRecord(rec model.AttendanceRecord) error {
	if rec.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if rec.CheckInTime.IsZero() {
		return &ValidationError{Field: "check_in_time", Reason: "must be set"}
	}
	if !rec.Method.Valid() {
		return &ValidationError{Field: "method", Reason: "unknown method " + string(rec.Method)}
	}
	if !rec.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(rec.Status)}
	}
	return nil
}

// validateUpdated guards the patched row. Check-out, when present, must not
// precede check-in.
func validateUpdated(rec model.AttendanceRecord) error {
	if err := validateNewRecord(rec); err != nil {
		return err
	}
	if rec.CheckOutTime != nil && rec.CheckOutTime.Before(rec.CheckInTime) {
		return &ValidationError{Field: "check_out_time", Reason: "before check-in time"}
	}
	return nil
}

func validateNewUser(u model.User) error {
	if u.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if u.Email == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	return nil
}

// dayBounds returns the UTC [start, end) instant pair for a calendar date.
func dayBounds(date string) (time.Time, time.Time, error) {
	start, err := model.ParseDay(date)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "date", Reason: err.Error()}
	}
	return start, start.AddDate(0, 0, 1), nil
}
