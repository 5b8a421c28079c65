package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/reservation-service/internal/domain"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

func rejectionOf(t *testing.T, err error) *ReservationRejection {
	t.Helper()
	require.Error(t, err)
	var rejection *ReservationRejection
	require.ErrorAs(t, err, &rejection)
	return rejection
}

func TestValidateReservationOrder(t *testing.T) {
	today := date("2025-01-09")
	open := &domain.Table{ID: 1, Capacity: 4, IsAvailable: true}
	closed := &domain.Table{ID: 2, Capacity: 4, IsAvailable: false}
	candidate := ReservationCandidate{Date: date("2025-01-10"), Start: hm(18, 0), End: hm(20, 0), PartySize: 2}

	assert.NoError(t, ValidateReservation(open, candidate, nil, today))

	// availability is checked before anything else, even an oversized party in the past
	bad := candidate
	bad.PartySize = 50
	bad.Date = date("2020-01-01")
	assert.Equal(t, RejectTableUnavailable, rejectionOf(t, ValidateReservation(closed, bad, nil, today)).Reason)
	assert.Equal(t, RejectPartySize, rejectionOf(t, ValidateReservation(open, bad, nil, today)).Reason)

	zero := candidate
	zero.PartySize = 0
	assert.Equal(t, RejectPartySize, rejectionOf(t, ValidateReservation(open, zero, nil, today)).Reason)

	full := candidate
	full.PartySize = 4
	assert.NoError(t, ValidateReservation(open, full, nil, today))

	past := candidate
	past.Date = date("2025-01-08")
	err := ValidateReservation(open, past, nil, today)
	assert.Equal(t, RejectPastDate, rejectionOf(t, err).Reason)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestValidateReservationSameDayEarlierTimeAccepted(t *testing.T) {
	// Only the calendar date is compared, so a booking for earlier today still passes.
	table := &domain.Table{ID: 1, Capacity: 4, IsAvailable: true}
	candidate := ReservationCandidate{Date: date("2025-01-09"), Start: hm(6, 0), End: hm(7, 0), PartySize: 2}
	assert.NoError(t, ValidateReservation(table, candidate, nil, date("2025-01-09")))
}

func TestValidateReservationOverlap(t *testing.T) {
	table := &domain.Table{ID: 1, Capacity: 4, IsAvailable: true}
	day := date("2025-01-10")
	existing := []domain.Reservation{
		{ID: 10, TableID: 1, ReservationDate: day, StartTime: hm(18, 0), EndTime: hm(20, 0), Status: domain.ReservationStatusConfirmed},
		{ID: 11, TableID: 1, ReservationDate: day, StartTime: hm(12, 0), EndTime: hm(14, 0), Status: domain.ReservationStatusCancelled},
		{ID: 12, TableID: 2, ReservationDate: day, StartTime: hm(9, 0), EndTime: hm(11, 0), Status: domain.ReservationStatusPending},
		{ID: 13, TableID: 1, ReservationDate: date("2025-01-11"), StartTime: hm(9, 0), EndTime: hm(11, 0), Status: domain.ReservationStatusPending},
	}
	today := date("2025-01-09")

	err := ValidateReservation(table, ReservationCandidate{Date: day, Start: hm(19, 0), End: hm(21, 0), PartySize: 2}, existing, today)
	assert.Equal(t, RejectOverlap, rejectionOf(t, err).Reason)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReservationConflict))
	assert.Contains(t, err.Error(), "18:00 to 20:00")

	for _, c := range []ReservationCandidate{
		{Date: day, Start: hm(20, 0), End: hm(22, 0), PartySize: 2},
		{Date: day, Start: hm(16, 0), End: hm(18, 0), PartySize: 2},
		{Date: day, Start: hm(12, 0), End: hm(14, 0), PartySize: 2},
		{Date: day, Start: hm(9, 0), End: hm(11, 0), PartySize: 2},
		{Date: day, Start: hm(18, 30), End: hm(19, 0), PartySize: 2, ExcludeID: 10},
	} {
		assert.NoError(t, ValidateReservation(table, c, existing, today), "%s-%s", c.Start, c.End)
	}
}

func TestValidateReservationNeverAcceptsOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	table := &domain.Table{ID: 1, Capacity: 8, IsAvailable: true}
	day := date("2025-01-10")
	today := date("2025-01-09")

	for round := 0; round < 200; round++ {
		var accepted []domain.Reservation
		for attempt := 0; attempt < 30; attempt++ {
			startMin := rng.Intn(23 * 60)
			length := 15 + rng.Intn(180)
			endMin := startMin + length
			if endMin >= 24*60 {
				endMin = 24*60 - 1
			}
			start, end := domain.NewTimeOfDay(0, startMin, 0), domain.NewTimeOfDay(0, endMin, 0)
			candidate := ReservationCandidate{Date: day, Start: start, End: end, PartySize: 1 + rng.Intn(8)}

			err := ValidateReservation(table, candidate, accepted, today)

			overlapping := false
			for _, a := range accepted {
				if domain.Overlaps(start, end, a.StartTime, a.EndTime) {
					overlapping = true
					break
				}
			}
			if overlapping {
				require.Error(t, err)
				continue
			}
			require.NoError(t, err)
			accepted = append(accepted, domain.Reservation{
				ID: int64(attempt + 1), TableID: 1, ReservationDate: day,
				StartTime: start, EndTime: end, Status: domain.ReservationStatusConfirmed,
			})
		}

		for i := range accepted {
			for j := i + 1; j < len(accepted); j++ {
				require.False(t, domain.Overlaps(accepted[i].StartTime, accepted[i].EndTime, accepted[j].StartTime, accepted[j].EndTime))
			}
		}
	}
}
