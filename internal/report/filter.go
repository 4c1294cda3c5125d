package report

import (
	"sort"
	"strings"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
)

// SortField selects the attendance column a table sorts on.
type SortField string

const (
	SortByName     SortField = "user_name"
	SortByCheckIn  SortField = "check_in_time"
	SortByCheckOut SortField = "check_out_time"
	SortByMethod   SortField = "method"
	SortByStatus   SortField = "status"
)

// Valid reports whether f names a sortable column.
func (f SortField) Valid() bool {
	switch f {
	case SortByName, SortByCheckIn, SortByCheckOut, SortByMethod, SortByStatus:
		return true
	}
	return false
}

// SortOrder is asc or desc.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// Query is one table view: search term, status filter and sort selection.
type Query struct {
	Search string
	Status string // StatusAll or a model.Status value
	Field  SortField
	Order  SortOrder
}

// NextSort computes the sort state after clicking a column header: clicking
// the active field flips the order, selecting a new field resets to asc.
func NextSort(field SortField, order SortOrder, clicked SortField) (SortField, SortOrder) {
	if clicked == field {
		if order == Asc {
			return field, Desc
		}
		return field, Asc
	}
	return clicked, Asc
}

// FilterAndSort derives the ordered subset for table display. Search matches
// user name or user id case-insensitively by substring. The sort is stable:
// records with equal keys keep their input order, under desc as well. A nil
// check-out time compares as the earliest possible instant, so open
// check-ins always group at the asc front / desc back. Returns a new slice;
// the input is untouched.
func FilterAndSort(records []model.AttendanceRecord, q Query) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, len(records))
	search := strings.ToLower(q.Search)
	for _, rec := range records {
		if search != "" &&
			!strings.Contains(strings.ToLower(rec.UserName), search) &&
			!strings.Contains(strings.ToLower(rec.UserID), search) {
			continue
		}
		if q.Status != "" && q.Status != StatusAll && string(rec.Status) != q.Status {
			continue
		}
		out = append(out, rec)
	}

	if !q.Field.Valid() {
		return out
	}
	less := lessFunc(q.Field)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Order == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(field SortField) func(a, b model.AttendanceRecord) bool {
	switch field {
	case SortByCheckIn:
		return func(a, b model.AttendanceRecord) bool {
			return a.CheckInTime.Before(b.CheckInTime)
		}
	case SortByCheckOut:
		return func(a, b model.AttendanceRecord) bool {
			return checkOutKey(a).Before(checkOutKey(b))
		}
	case SortByMethod:
		return func(a, b model.AttendanceRecord) bool {
			return a.Method < b.Method
		}
	case SortByStatus:
		return func(a, b model.AttendanceRecord) bool {
			return a.Status < b.Status
		}
	default:
		return func(a, b model.AttendanceRecord) bool {
			return strings.ToLower(a.UserName) < strings.ToLower(b.UserName)
		}
	}
}

// checkOutKey maps a missing check-out to the zero instant, making open
// check-ins sort deterministically instead of depending on comparator luck.
func checkOutKey(rec model.AttendanceRecord) time.Time {
	if rec.CheckOutTime == nil {
		return time.Time{}
	}
	return *rec.CheckOutTime
}
