package model

// Settings is the read-only system configuration exposed to the dashboard.
// The grace period and working hours are reference values for later rule
// evaluation; check-in itself does not consult them.
type Settings struct {
	ScannerEnabled         bool   `json:"scanner_enabled"`
	RFIDEnabled            bool   `json:"rfid_enabled"`
	FaceRecognitionEnabled bool   `json:"face_recognition_enabled"`
	ManualCheckInEnabled   bool   `json:"manual_check_in_enabled"`
	GracePeriodMinutes     int    `json:"grace_period_minutes"`
	WorkingHoursStart      string `json:"working_hours_start"` // HH:MM
	WorkingHoursEnd        string `json:"working_hours_end"`   // HH:MM
	AutoCheckOut           bool   `json:"auto_check_out"`
	TotalRegistered        int    `json:"total_registered"`
}
