package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

func newRecord(userID string, checkIn time.Time) model.AttendanceRecord {
	return model.AttendanceRecord{
		UserID:      userID,
		UserName:    "User " + userID,
		CheckInTime: checkIn,
		Method:      model.MethodQRCode,
		Status:      model.StatusPresent,
	}
}

func TestMemoryAttendanceCreateGet(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	created, err := mem.Attendance.Create(ctx, newRecord("u1", checkIn))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("no id assigned")
	}
	if created.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}

	got, err := mem.Attendance.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != "u1" || !got.CheckInTime.Equal(checkIn) {
		t.Errorf("got %+v", got)
	}

	if _, err := mem.Attendance.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryAttendanceCreateValidation(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*model.AttendanceRecord)
	}{
		{"empty user id", func(r *model.AttendanceRecord) { r.UserID = "" }},
		{"zero check-in", func(r *model.AttendanceRecord) { r.CheckInTime = time.Time{} }},
		{"unknown method", func(r *model.AttendanceRecord) { r.Method = "Carrier Pigeon" }},
		{"unknown status", func(r *model.AttendanceRecord) { r.Status = "Presentish" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord("u1", checkIn)
			tt.mutate(&rec)
			_, err := mem.Attendance.Create(ctx, rec)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestMemoryAttendanceListByDate(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	// 23:59 on the 9th, midnight and noon on the 10th, midnight on the 11th.
	times := []time.Time{
		time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		if _, err := mem.Attendance.Create(ctx, newRecord("u"+string(rune('1'+i)), ts)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	got, err := mem.Attendance.ListByDate(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (day bounds are [midnight, next midnight))", len(got))
	}
	// Newest check-in first.
	if !got[0].CheckInTime.After(got[1].CheckInTime) {
		t.Errorf("not newest-first: %v then %v", got[0].CheckInTime, got[1].CheckInTime)
	}

	if _, err := mem.Attendance.ListByDate(ctx, "10/03/2025"); err == nil {
		t.Error("malformed date accepted")
	}
}

func TestMemoryAttendanceListByUser(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := mem.Attendance.Create(ctx, newRecord("u1", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := mem.Attendance.Create(ctx, newRecord("u2", base)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := mem.Attendance.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
	for _, rec := range got {
		if rec.UserID != "u1" {
			t.Errorf("foreign record %+v", rec)
		}
	}
}

func TestMemoryAttendanceUpdate(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	created, err := mem.Attendance.Create(ctx, newRecord("u1", checkIn))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	out := checkIn.Add(8 * time.Hour)
	updated, err := mem.Attendance.Update(ctx, created.ID, model.AttendancePatch{CheckOutTime: &out})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CheckOutTime == nil || !updated.CheckOutTime.Equal(out) {
		t.Errorf("check-out = %v, want %v", updated.CheckOutTime, out)
	}

	// Check-out before check-in must be rejected and leave the row untouched.
	early := checkIn.Add(-time.Hour)
	_, err = mem.Attendance.Update(ctx, created.ID, model.AttendancePatch{CheckOutTime: &early})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	got, err := mem.Attendance.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CheckOutTime == nil || !got.CheckOutTime.Equal(out) {
		t.Errorf("rejected update mutated the row: %v", got.CheckOutTime)
	}

	if _, err := mem.Attendance.Update(ctx, "missing", model.AttendancePatch{CheckOutTime: &out}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryAttendanceDelete(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	created, err := mem.Attendance.Create(ctx, newRecord("u1", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := mem.Attendance.Delete(ctx, created.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = mem.Attendance.Delete(ctx, created.ID)
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v; want false, nil", deleted, err)
	}
	if _, err := mem.Attendance.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted record still readable: %v", err)
	}
}

func TestMemoryAttendanceCopyOnReturn(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	out := checkIn.Add(8 * time.Hour)

	created, err := mem.Attendance.Create(ctx, newRecord("u1", checkIn))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := mem.Attendance.Update(ctx, created.ID, model.AttendancePatch{CheckOutTime: &out}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := mem.Attendance.GetByID(ctx, created.ID)
	*got.CheckOutTime = got.CheckOutTime.Add(24 * time.Hour)

	again, _ := mem.Attendance.GetByID(ctx, created.ID)
	if !again.CheckOutTime.Equal(out) {
		t.Error("caller mutation leaked into the store")
	}
}

func TestMemoryUsers(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	alice, err := mem.Users.Create(ctx, model.User{Name: "Alice Smith", Email: "alice@corp.test"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := mem.Users.Create(ctx, model.User{Name: "Bob Jones", Email: "bob@corp.test"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := mem.Users.Create(ctx, model.User{Email: "anon@corp.test"}); err == nil {
		t.Error("nameless user accepted")
	}

	got, err := mem.Users.GetByID(ctx, alice.ID)
	if err != nil || got.Name != "Alice Smith" {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
	if _, err := mem.Users.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: err = %v, want ErrNotFound", err)
	}

	all, err := mem.Users.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Alice Smith" {
		t.Errorf("ListAll = %+v, want name order", all)
	}

	found, err := mem.Users.Search(ctx, "BOB")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Bob Jones" {
		t.Errorf("Search = %+v", found)
	}
	byEmail, err := mem.Users.Search(ctx, "alice@")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(byEmail) != 1 || byEmail[0].ID != alice.ID {
		t.Errorf("Search by email = %+v", byEmail)
	}
}

func TestMemorySessionsUpsert(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if _, err := mem.Sessions.GetByDate(ctx, "2025-03-10"); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty store: err = %v, want ErrNotFound", err)
	}

	first, err := mem.Sessions.Upsert(ctx, model.Session{Date: "2025-03-10", TotalPresent: 3, TotalRegistered: 10})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if first.ID == "" {
		t.Fatal("no id assigned")
	}

	second, err := mem.Sessions.Upsert(ctx, model.Session{Date: "2025-03-10", TotalPresent: 5, TotalRegistered: 10})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("replay changed id: %q then %q", first.ID, second.ID)
	}

	got, err := mem.Sessions.GetByDate(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if got.TotalPresent != 5 {
		t.Errorf("present = %d, want 5 after upsert", got.TotalPresent)
	}
}

func TestMemoryDevices(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Devices.UpsertDevice(ctx, ""); err == nil {
		t.Error("empty device id accepted")
	}
	if err := mem.Devices.UpsertDevice(ctx, "kiosk-1"); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}
	if err := mem.Devices.UpsertDevice(ctx, "kiosk-1"); err != nil {
		t.Fatalf("repeat UpsertDevice: %v", err)
	}

	exp := time.Now().Add(24 * time.Hour)
	if err := mem.Devices.SaveRefreshToken(ctx, "kiosk-1", "tok-1", exp); err != nil {
		t.Fatalf("SaveRefreshToken: %v", err)
	}
	if err := mem.Devices.RevokeRefreshToken(ctx, "tok-1"); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}
}
