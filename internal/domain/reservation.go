package domain

import "time"

// ReservationStatus represents the lifecycle of a reservation.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// ActiveReservationStatuses are the statuses that hold a table slot.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled, ReservationStatusCompleted:
		return true
	}
	return false
}

// Active reports whether the status counts toward conflict checks.
func (s ReservationStatus) Active() bool {
	return s == ReservationStatusPending || s == ReservationStatusConfirmed
}

// Reservation is a booking of one table by one user for a time range on a date.
// The range is half-open: [StartTime, EndTime).
type Reservation struct {
	ID              int64
	UserID          int64
	TableID         int64
	ReservationDate time.Time
	StartTime       TimeOfDay
	EndTime         TimeOfDay
	PartySize       int
	Status          ReservationStatus
	SpecialRequests string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Populated by read queries that join users and tables.
	Username  string
	TableName string
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

// OverlapsRange reports whether the reservation's interval intersects [start,end).
func (r *Reservation) OverlapsRange(start, end TimeOfDay) bool {
	return Overlaps(start, end, r.StartTime, r.EndTime)
}
