package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

// Postgres bundles the Postgres-backed stores sharing one connection.
type Postgres struct {
	Attendance *PostgresAttendance
	Users      *PostgresUsers
	Sessions   *PostgresSessions
	Devices    *PostgresDevices
}

// NewPostgres creates the per-entity stores on top of db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		Attendance: &PostgresAttendance{db: db},
		Users:      &PostgresUsers{db: db},
		Sessions:   &PostgresSessions{db: db},
		Devices:    &PostgresDevices{db: db},
	}
}

// PostgresAttendance implements AttendanceStore.
type PostgresAttendance struct {
	db *sql.DB
}

const attendanceColumns = "id, user_id, user_name, check_in_time, check_out_time, method, status, created_at"

func scanRecord(row interface{ Scan(...any) error }) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.UserName, &rec.CheckInTime,
		&rec.CheckOutTime, &rec.Method, &rec.Status, &rec.CreatedAt)
	return rec, err
}

func (s *PostgresAttendance) list(ctx context.Context, op, where string, args ...any) ([]model.AttendanceRecord, error) {
	query := "SELECT " + attendanceColumns + " FROM attendance"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY check_in_time DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer rows.Close()

	records := []model.AttendanceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, transportErr(op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(op, err)
	}
	return records, nil
}

// ListAll returns every attendance record, newest check-in first.
func (s *PostgresAttendance) ListAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	return s.list(ctx, "attendance.list", "")
}

// GetByID returns a single record or ErrNotFound.
func (s *PostgresAttendance) GetByID(ctx context.Context, id string) (model.AttendanceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE id = $1", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AttendanceRecord{}, ErrNotFound
	}
	if err != nil {
		return model.AttendanceRecord{}, transportErr("attendance.get", err)
	}
	return rec, nil
}

// ListByDate returns records whose check-in falls on the given UTC day.
func (s *PostgresAttendance) ListByDate(ctx context.Context, date string) ([]model.AttendanceRecord, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, "attendance.list_by_date",
		"check_in_time >= $1 AND check_in_time < $2", start, end)
}

// ListByUser returns all records for one user.
func (s *PostgresAttendance) ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	return s.list(ctx, "attendance.list_by_user", "user_id = $1", userID)
}

// Create inserts a new record, assigning the id server-side.
func (s *PostgresAttendance) Create(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if err := validateNewRecord(rec); err != nil {
		return model.AttendanceRecord{}, err
	}
	rec.ID = uuid.NewString()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, user_id, user_name, check_in_time, check_out_time, method, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, rec.ID, rec.UserID, rec.UserName, rec.CheckInTime, rec.CheckOutTime, rec.Method, rec.Status)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return model.AttendanceRecord{}, transportErr("attendance.create", err)
	}
	return rec, nil
}

// Update applies a patch field-by-field. Reads the current row first so the
// check-out >= check-in invariant is checked against stored state.
func (s *PostgresAttendance) Update(ctx context.Context, id string, patch model.AttendancePatch) (model.AttendanceRecord, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	updated := patch.Apply(current)
	if err := validateUpdated(updated); err != nil {
		return model.AttendanceRecord{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE attendance
		SET user_name = $2, check_in_time = $3, check_out_time = $4, method = $5, status = $6
		WHERE id = $1
	`, id, updated.UserName, updated.CheckInTime, updated.CheckOutTime, updated.Method, updated.Status)
	if err != nil {
		return model.AttendanceRecord{}, transportErr("attendance.update", err)
	}
	return updated, nil
}

// Delete removes a record. Exists for administrative cleanup only.
func (s *PostgresAttendance) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM attendance WHERE id = $1", id)
	if err != nil {
		return false, transportErr("attendance.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, transportErr("attendance.delete", err)
	}
	return n > 0, nil
}

// PostgresUsers implements UserStore.
type PostgresUsers struct {
	db *sql.DB
}

const userColumns = "id, name, email, qr_code, rfid_tag, photo_url, created_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.QRCode, &u.RFIDTag, &u.PhotoURL, &u.CreatedAt)
	return u, err
}

func (s *PostgresUsers) list(ctx context.Context, op, where string, args ...any) ([]model.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, transportErr(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(op, err)
	}
	return users, nil
}

// ListAll returns every registered user ordered by name.
func (s *PostgresUsers) ListAll(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, "user.list", "")
}

// GetByID returns one user or ErrNotFound.
func (s *PostgresUsers) GetByID(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, transportErr("user.get", err)
	}
	return u, nil
}

// Search matches name or email case-insensitively by substring.
func (s *PostgresUsers) Search(ctx context.Context, query string) ([]model.User, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return s.list(ctx, "user.search",
		"LOWER(name) LIKE $1 OR LOWER(email) LIKE $1", pattern)
}

// Create registers a user with a server-assigned id.
func (s *PostgresUsers) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := validateNewUser(u); err != nil {
		return model.User{}, err
	}
	u.ID = uuid.NewString()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, qr_code, rfid_tag, photo_url)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, u.QRCode, u.RFIDTag, u.PhotoURL)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return model.User{}, transportErr("user.create", err)
	}
	return u, nil
}

// PostgresSessions implements SessionStore.
type PostgresSessions struct {
	db *sql.DB
}

// GetByDate returns the summary row for a day or ErrNotFound.
func (s *PostgresSessions) GetByDate(ctx context.Context, date string) (model.Session, error) {
	if _, _, err := dayBounds(date); err != nil {
		return model.Session{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, date, start_time, end_time, total_present, total_registered, updated_at
		FROM sessions WHERE date = $1
	`, date)
	var sess model.Session
	err := row.Scan(&sess.ID, &sess.Date, &sess.StartTime, &sess.EndTime,
		&sess.TotalPresent, &sess.TotalRegistered, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, transportErr("session.get", err)
	}
	return sess, nil
}

// Upsert creates or replaces the summary row for a day.
func (s *PostgresSessions) Upsert(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, date, start_time, end_time, total_present, total_registered, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (date) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			total_present = EXCLUDED.total_present,
			total_registered = EXCLUDED.total_registered,
			updated_at = NOW()
		RETURNING id, updated_at
	`, sess.ID, sess.Date, sess.StartTime, sess.EndTime, sess.TotalPresent, sess.TotalRegistered)
	if err := row.Scan(&sess.ID, &sess.UpdatedAt); err != nil {
		return model.Session{}, transportErr("session.upsert", err)
	}
	return sess, nil
}

// PostgresDevices implements DeviceStore.
type PostgresDevices struct {
	db *sql.DB
}

// UpsertDevice ensures a device record exists.
func (s *PostgresDevices) UpsertDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return &ValidationError{Field: "device_id", Reason: "must not be empty"}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (device_id)
		VALUES ($1)
		ON CONFLICT (device_id) DO NOTHING
	`, deviceID)
	if err != nil {
		return transportErr("device.upsert", err)
	}
	return nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (s *PostgresDevices) SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (device_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, deviceID, token, expiresAt)
	if err != nil {
		return transportErr("device.save_token", err)
	}
	return nil
}

// RevokeRefreshToken marks a token revoked.
func (s *PostgresDevices) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1", token)
	if err != nil {
		return transportErr("device.revoke_token", err)
	}
	return nil
}
