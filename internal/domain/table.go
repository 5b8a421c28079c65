package domain

import "time"

// Table is a bookable restaurant table.
type Table struct {
	ID          int64
	Name        string
	Capacity    int
	IsAvailable bool
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Seats reports whether the table can host a party of the given size.
func (t *Table) Seats(partySize int) bool {
	return partySize > 0 && partySize <= t.Capacity
}
