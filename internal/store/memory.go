package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

// Memory bundles map-backed stores for development and tests. Instantiated
// per process and passed explicitly; there is no package-level instance.
type Memory struct {
	Attendance *MemoryAttendance
	Users      *MemoryUsers
	Sessions   *MemorySessions
	Devices    *MemoryDevices
}

// NewMemory creates an empty in-memory store set.
func NewMemory() *Memory {
	return &Memory{
		Attendance: &MemoryAttendance{records: map[string]model.AttendanceRecord{}},
		Users:      &MemoryUsers{users: map[string]model.User{}},
		Sessions:   &MemorySessions{byDate: map[string]model.Session{}},
		Devices:    &MemoryDevices{devices: map[string]bool{}},
	}
}

// MemoryAttendance implements AttendanceStore over a map.
type MemoryAttendance struct {
	mu      sync.RWMutex
	records map[string]model.AttendanceRecord
}

func copyRecord(rec model.AttendanceRecord) model.AttendanceRecord {
	if rec.CheckOutTime != nil {
		t := *rec.CheckOutTime
		rec.CheckOutTime = &t
	}
	return rec
}

func (s *MemoryAttendance) snapshot(keep func(model.AttendanceRecord) bool) []model.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.AttendanceRecord{}
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	// Newest check-in first, matching the Postgres ordering.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckInTime.After(out[j].CheckInTime)
	})
	return out
}

// ListAll returns every record, newest check-in first.
func (s *MemoryAttendance) ListAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	return s.snapshot(func(model.AttendanceRecord) bool { return true }), nil
}

// GetByID returns a record or ErrNotFound.
func (s *MemoryAttendance) GetByID(ctx context.Context, id string) (model.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return model.AttendanceRecord{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

// ListByDate returns records whose check-in falls on the given UTC day.
func (s *MemoryAttendance) ListByDate(ctx context.Context, date string) ([]model.AttendanceRecord, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	return s.snapshot(func(rec model.AttendanceRecord) bool {
		t := rec.CheckInTime.UTC()
		return !t.Before(start) && t.Before(end)
	}), nil
}

// ListByUser returns all records for one user.
func (s *MemoryAttendance) ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	return s.snapshot(func(rec model.AttendanceRecord) bool {
		return rec.UserID == userID
	}), nil
}

// Create assigns an id and stores the record.
func (s *MemoryAttendance) Create(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if err := validateNewRecord(rec); err != nil {
		return model.AttendanceRecord{}, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	s.mu.Lock()
	s.records[rec.ID] = copyRecord(rec)
	s.mu.Unlock()
	return rec, nil
}

// Update applies a patch to an existing record.
func (s *MemoryAttendance) Update(ctx context.Context, id string, patch model.AttendancePatch) (model.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[id]
	if !ok {
		return model.AttendanceRecord{}, ErrNotFound
	}
	updated := patch.Apply(copyRecord(current))
	if err := validateUpdated(updated); err != nil {
		return model.AttendanceRecord{}, err
	}
	s.records[id] = copyRecord(updated)
	return updated, nil
}

// Delete removes a record, reporting whether it existed.
func (s *MemoryAttendance) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

// MemoryUsers implements UserStore over a map.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func (s *MemoryUsers) snapshot(keep func(model.User) bool) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.User{}
	for _, u := range s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListAll returns every user ordered by name.
func (s *MemoryUsers) ListAll(ctx context.Context) ([]model.User, error) {
	return s.snapshot(func(model.User) bool { return true }), nil
}

// GetByID returns one user or ErrNotFound.
func (s *MemoryUsers) GetByID(ctx context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// Search matches name or email case-insensitively by substring.
func (s *MemoryUsers) Search(ctx context.Context, query string) ([]model.User, error) {
	q := strings.ToLower(query)
	return s.snapshot(func(u model.User) bool {
		return strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q)
	}), nil
}

// Create registers a user with a server-assigned id.
func (s *MemoryUsers) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := validateNewUser(u); err != nil {
		return model.User{}, err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u, nil
}

// MemorySessions implements SessionStore over a map keyed by date.
type MemorySessions struct {
	mu     sync.RWMutex
	byDate map[string]model.Session
}

// GetByDate returns the summary row for a day or ErrNotFound.
func (s *MemorySessions) GetByDate(ctx context.Context, date string) (model.Session, error) {
	if _, _, err := dayBounds(date); err != nil {
		return model.Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byDate[date]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return sess, nil
}

// Upsert creates or replaces the summary row for a day.
func (s *MemorySessions) Upsert(ctx context.Context, sess model.Session) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byDate[sess.Date]; ok {
		sess.ID = existing.ID
	} else if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.UpdatedAt = time.Now().UTC()
	s.byDate[sess.Date] = sess
	return sess, nil
}

// MemoryDevices implements DeviceStore over a map. Refresh tokens are held
// only for the process lifetime.
type MemoryDevices struct {
	mu      sync.Mutex
	devices map[string]bool
	tokens  []memoryToken
}

type memoryToken struct {
	deviceID  string
	token     string
	expiresAt time.Time
	revoked   bool
}

// UpsertDevice ensures a device record exists.
func (s *MemoryDevices) UpsertDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return &ValidationError{Field: "device_id", Reason: "must not be empty"}
	}
	s.mu.Lock()
	s.devices[deviceID] = true
	s.mu.Unlock()
	return nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (s *MemoryDevices) SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error {
	s.mu.Lock()
	s.tokens = append(s.tokens, memoryToken{deviceID: deviceID, token: token, expiresAt: expiresAt})
	s.mu.Unlock()
	return nil
}

// RevokeRefreshToken marks a token revoked.
func (s *MemoryDevices) RevokeRefreshToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tokens {
		if s.tokens[i].token == token {
			s.tokens[i].revoked = true
		}
	}
	return nil
}
