package report

import (
	"reflect"
	"testing"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

func tableRec(id, name string, checkIn time.Time, checkOut *time.Time, method model.Method, status model.Status) model.AttendanceRecord {
	return model.AttendanceRecord{
		ID:           id,
		UserID:       id,
		UserName:     name,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
		Method:       method,
		Status:       status,
	}
}

func ids(records []model.AttendanceRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}

func TestFilterAndSortSearch(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []model.AttendanceRecord{
		tableRec("u1", "Alice Smith", base, nil, model.MethodQRCode, model.StatusPresent),
		tableRec("u2", "Bob Jones", base, nil, model.MethodRFID, model.StatusLate),
		tableRec("u3", "alison brown", base, nil, model.MethodManual, model.StatusPresent),
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"case-insensitive name substring", Query{Search: "ali"}, []string{"u1", "u3"}},
		{"matches user id", Query{Search: "U2"}, []string{"u2"}},
		{"status filter", Query{Status: string(model.StatusLate)}, []string{"u2"}},
		{"all disables status filter", Query{Status: StatusAll}, []string{"u1", "u2", "u3"}},
		{"search and status combine", Query{Search: "ali", Status: string(model.StatusPresent)}, []string{"u1", "u3"}},
		{"no match", Query{Search: "zebra"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterAndSort(records, tt.q))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterAndSortOrdering(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	out1 := base.Add(8 * time.Hour)
	records := []model.AttendanceRecord{
		tableRec("u1", "Charlie", base.Add(2*time.Hour), &out1, model.MethodRFID, model.StatusLate),
		tableRec("u2", "alice", base, nil, model.MethodQRCode, model.StatusPresent),
		tableRec("u3", "Bob", base.Add(time.Hour), nil, model.MethodManual, model.StatusPresent),
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"name asc is case-insensitive", Query{Field: SortByName, Order: Asc}, []string{"u2", "u3", "u1"}},
		{"name desc", Query{Field: SortByName, Order: Desc}, []string{"u1", "u3", "u2"}},
		{"check-in asc", Query{Field: SortByCheckIn, Order: Asc}, []string{"u2", "u3", "u1"}},
		{"check-in desc", Query{Field: SortByCheckIn, Order: Desc}, []string{"u1", "u3", "u2"}},
		{"open check-ins lead asc check-out", Query{Field: SortByCheckOut, Order: Asc}, []string{"u2", "u3", "u1"}},
		{"open check-ins trail desc check-out", Query{Field: SortByCheckOut, Order: Desc}, []string{"u1", "u2", "u3"}},
		{"status asc", Query{Field: SortByStatus, Order: Asc}, []string{"u1", "u2", "u3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterAndSort(records, tt.q))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterAndSortStable(t *testing.T) {
	// Equal sort keys keep input order, ascending and descending alike.
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []model.AttendanceRecord{
		tableRec("u1", "Same", base, nil, model.MethodQRCode, model.StatusPresent),
		tableRec("u2", "Same", base, nil, model.MethodQRCode, model.StatusPresent),
		tableRec("u3", "Same", base, nil, model.MethodQRCode, model.StatusPresent),
	}

	for _, order := range []SortOrder{Asc, Desc} {
		got := ids(FilterAndSort(records, Query{Field: SortByName, Order: order}))
		want := []string{"u1", "u2", "u3"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("order %s: got %v, want %v", order, got, want)
		}
	}
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []model.AttendanceRecord{
		tableRec("u2", "Bob", base.Add(time.Hour), nil, model.MethodRFID, model.StatusPresent),
		tableRec("u1", "Alice", base, nil, model.MethodQRCode, model.StatusPresent),
	}
	before := ids(records)

	FilterAndSort(records, Query{Field: SortByName, Order: Asc})

	if got := ids(records); !reflect.DeepEqual(got, before) {
		t.Errorf("input reordered: %v, want %v", got, before)
	}
}

func TestFilterAndSortIdempotent(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []model.AttendanceRecord{
		tableRec("u3", "Carol", base.Add(2*time.Hour), nil, model.MethodManual, model.StatusLate),
		tableRec("u1", "Alice", base, nil, model.MethodQRCode, model.StatusPresent),
		tableRec("u2", "Bob", base.Add(time.Hour), nil, model.MethodRFID, model.StatusPresent),
	}
	q := Query{Field: SortByCheckIn, Order: Desc}

	once := FilterAndSort(records, q)
	twice := FilterAndSort(once, q)
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Errorf("resort changed order: %v then %v", ids(once), ids(twice))
	}
}

func TestNextSort(t *testing.T) {
	tests := []struct {
		name      string
		field     SortField
		order     SortOrder
		clicked   SortField
		wantField SortField
		wantOrder SortOrder
	}{
		{"same column flips asc to desc", SortByName, Asc, SortByName, SortByName, Desc},
		{"same column flips desc to asc", SortByName, Desc, SortByName, SortByName, Asc},
		{"new column resets to asc", SortByName, Desc, SortByCheckIn, SortByCheckIn, Asc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, order := NextSort(tt.field, tt.order, tt.clicked)
			if field != tt.wantField || order != tt.wantOrder {
				t.Errorf("got (%s, %s), want (%s, %s)", field, order, tt.wantField, tt.wantOrder)
			}
		})
	}
}
