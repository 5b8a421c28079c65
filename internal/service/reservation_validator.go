package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// Rejection reasons, used as the reason label on reservations_rejected_total.
const (
	RejectTableUnavailable = "table_unavailable"
	RejectPartySize        = "party_size"
	RejectPastDate         = "past_date"
	RejectOverlap          = "overlap"
	RejectDuplicate        = "duplicate"
	RejectInvalidInput     = "invalid_input"
)

// ReservationRejection wraps the client-facing error with a stable reason.
type ReservationRejection struct {
	Reason string
	Err    error
}

func (r *ReservationRejection) Error() string { return r.Err.Error() }

func (r *ReservationRejection) Unwrap() error { return r.Err }

func reject(reason string, err error) error {
	return &ReservationRejection{Reason: reason, Err: err}
}

// ReservationCandidate is a proposed booking. ExcludeID names the reservation being edited, if any.
type ReservationCandidate struct {
	ExcludeID int64
	Date      time.Time
	Start     domain.TimeOfDay
	End       domain.TimeOfDay
	PartySize int
}

// ValidateReservation applies the booking rules in order and returns the first failure.
// existing may contain any reservations; only active ones on the candidate's table and date count.
// today is the current calendar date; only the date is compared, not the time of day.
func ValidateReservation(table *domain.Table, candidate ReservationCandidate, existing []domain.Reservation, today time.Time) error {
	if !table.IsAvailable {
		return reject(RejectTableUnavailable, apperrors.NewFieldError("table", "This table is not available for reservations"))
	}

	if candidate.PartySize <= 0 {
		return reject(RejectPartySize, apperrors.NewFieldError("party_size", "Party size must be greater than zero"))
	}
	if !table.Seats(candidate.PartySize) {
		return reject(RejectPartySize, apperrors.NewFieldError("party_size",
			fmt.Sprintf("Party size exceeds table capacity of %d", table.Capacity)))
	}

	if domain.DateOf(candidate.Date).Before(domain.DateOf(today)) {
		return reject(RejectPastDate, apperrors.NewFieldError("reservation_date", "Cannot make reservations for past dates"))
	}

	for i := range existing {
		other := &existing[i]
		if !other.Status.Active() || other.TableID != table.ID {
			continue
		}
		if candidate.ExcludeID != 0 && other.ID == candidate.ExcludeID {
			continue
		}
		if !domain.DateOf(other.ReservationDate).Equal(domain.DateOf(candidate.Date)) {
			continue
		}
		if other.OverlapsRange(candidate.Start, candidate.End) {
			return reject(RejectOverlap, apperrors.NewReservationConflict(
				fmt.Sprintf("Table is already reserved from %s to %s", other.StartTime, other.EndTime),
				map[string]any{
					"conflicting_start": other.StartTime.String(),
					"conflicting_end":   other.EndTime.String(),
				}))
		}
	}
	return nil
}

// ReservationValidator loads the same-day bookings for a table and runs ValidateReservation.
type ReservationValidator struct {
	reservations repository.ReservationRepository
	clock        func() time.Time
	location     *time.Location
}

// NewReservationValidator builds a validator. "today" is taken from clock in location.
func NewReservationValidator(reservations repository.ReservationRepository, clock func() time.Time, location *time.Location) *ReservationValidator {
	if clock == nil {
		clock = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &ReservationValidator{reservations: reservations, clock: clock, location: location}
}

// Today returns the current calendar date in the configured zone.
func (v *ReservationValidator) Today() time.Time {
	return domain.DateOf(v.clock().In(v.location))
}

// Validate checks candidate against table and the table's active bookings on that date.
func (v *ReservationValidator) Validate(ctx context.Context, table *domain.Table, candidate ReservationCandidate) error {
	var existing []domain.Reservation
	if table.IsAvailable {
		var err error
		existing, err = v.reservations.ListActiveForTableDate(ctx, table.ID, domain.DateOf(candidate.Date), candidate.ExcludeID)
		if err != nil {
			return err
		}
	}
	return ValidateReservation(table, candidate, existing, v.Today())
}
