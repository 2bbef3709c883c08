package models

import "time"

type BookingStatus string

const (
	BookingScheduled  BookingStatus = "SCHEDULED"
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingNoShow     BookingStatus = "NO_SHOW"
)

// ActiveStatuses are the statuses that occupy slot capacity.
var ActiveStatuses = []string{string(BookingScheduled), string(BookingInProgress)}

type BookingSource string

const (
	SourceStaff  BookingSource = "staff"
	SourcePortal BookingSource = "portal"
)

type Booking struct {
	ID        string        `db:"id"`
	ClientID  string        `db:"client_id"`
	StaffID   *string       `db:"staff_id"`
	Date      time.Time     `db:"date"`
	StartTime string        `db:"start_time"`
	EndTime   string        `db:"end_time"`
	Source    BookingSource `db:"source"`
	Status    BookingStatus `db:"status"`
	Notes     *string       `db:"notes"`
	CreatedAt time.Time     `db:"created_at"`
}

type BlackoutDate struct {
	ID     string    `db:"id"`
	Date   time.Time `db:"date"`
	Reason *string   `db:"reason"`
}

// SlotLimits are the per-slot booking ceilings as stored in settings.
// Nil fields mean "not configured".
type SlotLimits struct {
	Staff  *int
	Portal *int
}

// SlotCount is one row of the batched conflict aggregation. DateKey is
// the "YYYY-MM-DD" form of the date column.
type SlotCount struct {
	DateKey   string `db:"date"`
	StartTime string `db:"start_time"`
	Count     int    `db:"count"`
}
