package model

import (
	"fmt"
	"time"
)

// Method is the channel a check-in arrived through.
type Method string

const (
	MethodQRCode Method = "QR Code"
	MethodRFID   Method = "RFID"
	MethodFace   Method = "Facial Recognition"
	MethodManual Method = "Manual"
)

// Valid reports whether m is a known check-in method.
func (m Method) Valid() bool {
	switch m {
	case MethodQRCode, MethodRFID, MethodFace, MethodManual:
		return true
	}
	return false
}

// Status classifies an attendance record.
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
	StatusAbsent  Status = "Absent"
)

// Valid reports whether s is a known attendance status.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// User is a registered person who can check in.
// Immutable after registration apart from the photo reference.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	QRCode    string    `json:"qr_code"`
	RFIDTag   string    `json:"rfid_tag"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord is one check-in, optionally closed by a check-out.
// UserName is denormalized at check-in time and never re-synced.
// All timestamps are UTC.
type AttendanceRecord struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	UserName     string     `json:"user_name"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Method       Method     `json:"method"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AttendancePatch holds the mutable attendance fields for partial updates.
// Nil means "leave unchanged". CheckOutTime can only be set, never cleared.
type AttendancePatch struct {
	UserName     *string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Method       *Method
	Status       *Status
}

// Apply returns a copy of rec with the non-nil patch fields applied.
func (p AttendancePatch) Apply(rec AttendanceRecord) AttendanceRecord {
	if p.UserName != nil {
		rec.UserName = *p.UserName
	}
	if p.CheckInTime != nil {
		rec.CheckInTime = *p.CheckInTime
	}
	if p.CheckOutTime != nil {
		t := *p.CheckOutTime
		rec.CheckOutTime = &t
	}
	if p.Method != nil {
		rec.Method = *p.Method
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	return rec
}

// Session is the daily summary row maintained by the worker.
type Session struct {
	ID              string     `json:"id"`
	Date            string     `json:"date"` // YYYY-MM-DD, UTC
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	TotalPresent    int        `json:"total_present"`
	TotalRegistered int        `json:"total_registered"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DayLayout is the calendar-date form used by date-scoped queries.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into UTC midnight of that day.
// Date filters and record timestamps share this UTC interpretation.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// Day formats t as the UTC calendar date it falls on.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
