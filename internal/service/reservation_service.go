package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/observability"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

const MaxSpecialRequestsLength = 1000

// ReservationService coordinates booking, cancellation and reservation listings.
type ReservationService struct {
	reservations repository.ReservationRepository
	tables       repository.TableRepository
	validator    *ReservationValidator
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	clock        func() time.Time
}

// ReservationDependencies bundles collaborators for the reservation service.
type ReservationDependencies struct {
	ReservationRepo repository.ReservationRepository
	TableRepo       repository.TableRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Clock           func() time.Time
	Location        *time.Location
}

// ReserveInput describes a booking request for one table.
type ReserveInput struct {
	Date            time.Time
	Start           domain.TimeOfDay
	End             domain.TimeOfDay
	PartySize       int
	SpecialRequests string
}

// HistoryQuery filters a user's own reservations.
type HistoryQuery struct {
	Status *domain.ReservationStatus
	Limit  int
	Offset int
}

// NewReservationService constructs the service.
func NewReservationService(deps ReservationDependencies) *ReservationService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		reservations: deps.ReservationRepo,
		tables:       deps.TableRepo,
		validator:    NewReservationValidator(deps.ReservationRepo, clock, deps.Location),
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		clock:        clock,
	}
}

// Reserve books tableID for user. The new reservation is confirmed immediately.
func (s *ReservationService) Reserve(ctx context.Context, user *domain.User, tableID int64, input ReserveInput) (*domain.Reservation, error) {
	if err := input.check(); err != nil {
		s.metrics.ReservationRejected(RejectInvalidInput)
		return nil, err
	}

	table, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("table", map[string]any{"table_id": tableID})
		}
		return nil, err
	}

	candidate := ReservationCandidate{
		Date:      domain.DateOf(input.Date),
		Start:     input.Start,
		End:       input.End,
		PartySize: input.PartySize,
	}
	if err := s.validator.Validate(ctx, table, candidate); err != nil {
		s.recordRejection(err)
		return nil, err
	}

	reservation := &domain.Reservation{
		UserID:          user.ID,
		TableID:         table.ID,
		ReservationDate: candidate.Date,
		StartTime:       input.Start,
		EndTime:         input.End,
		PartySize:       input.PartySize,
		Status:          domain.ReservationStatusConfirmed,
		SpecialRequests: input.SpecialRequests,
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		if constraint, ok := repository.ViolatedConstraint(err); ok && constraint == repository.ConstraintUniqueReservation {
			s.metrics.ReservationRejected(RejectDuplicate)
			return nil, apperrors.NewReservationConflict(
				fmt.Sprintf("Table already has a reservation starting at %s on %s", input.Start, domain.FormatDate(candidate.Date)),
				map[string]any{"start_time": input.Start.String()})
		}
		return nil, err
	}
	reservation.Username = user.Username
	reservation.TableName = table.Name

	s.metrics.ReservationCreated()
	s.publish(ctx, events.EventReservationCreated, user.ID, reservation)
	return reservation, nil
}

// Cancel marks one of the caller's active reservations on tableID as cancelled.
// Without reservationID the earliest active booking is chosen. Admins may cancel any
// reservation they name explicitly.
func (s *ReservationService) Cancel(ctx context.Context, user *domain.User, tableID int64, reservationID *int64) (*domain.Reservation, error) {
	notFound := apperrors.NewNotFound("active reservation", map[string]any{"table_id": tableID})

	var target *domain.Reservation
	if reservationID == nil {
		found, err := s.reservations.FindActiveForUserTable(ctx, user.ID, tableID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound
			}
			return nil, err
		}
		target = found
	} else {
		found, err := s.reservations.GetByID(ctx, *reservationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound
			}
			return nil, err
		}
		if found.TableID != tableID || !found.Status.Active() {
			return nil, notFound
		}
		if found.UserID != user.ID && !user.IsAdmin() {
			return nil, notFound
		}
		target = found
	}

	cancelled, err := s.reservations.UpdateStatus(ctx, target.ID, domain.ReservationStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound
		}
		return nil, err
	}

	s.metrics.ReservationCancelled()
	s.publish(ctx, events.EventReservationCancelled, user.ID, cancelled)
	return cancelled, nil
}

// History lists the user's reservations, newest first.
func (s *ReservationService) History(ctx context.Context, userID int64, query HistoryQuery) ([]domain.Reservation, error) {
	filter := repository.ReservationFilter{
		UserID: &userID,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Status != nil {
		if !query.Status.Valid() {
			return nil, apperrors.NewFieldError("status", fmt.Sprintf("unknown status %q", *query.Status))
		}
		filter.Statuses = []domain.ReservationStatus{*query.Status}
	}
	return s.reservations.ListWithFilter(ctx, filter)
}

// ListAll returns reservations across all users for administrators.
func (s *ReservationService) ListAll(ctx context.Context, filter repository.ReservationFilter) ([]domain.Reservation, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewFieldError("status", fmt.Sprintf("unknown status %q", status))
		}
	}
	return s.reservations.ListWithFilter(ctx, filter)
}

func (s *ReservationService) recordRejection(err error) {
	var rejection *ReservationRejection
	if errors.As(err, &rejection) {
		s.metrics.ReservationRejected(rejection.Reason)
	}
}

func (s *ReservationService) publish(ctx context.Context, eventType events.EventType, actorID int64, res *domain.Reservation) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, actorID, s.clock(), events.ReservationPayload{
		ReservationID:   res.ID,
		TableID:         res.TableID,
		UserID:          res.UserID,
		ReservationDate: domain.FormatDate(res.ReservationDate),
		StartTime:       res.StartTime.String(),
		EndTime:         res.EndTime.String(),
		PartySize:       res.PartySize,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (in ReserveInput) check() error {
	details := map[string]any{}
	if in.Date.IsZero() {
		details["reservation_date"] = "This field is required"
	}
	if !in.Start.Valid() {
		details["start_time"] = "Invalid time"
	}
	if !in.End.Valid() {
		details["end_time"] = "Invalid time"
	}
	if in.Start.Valid() && in.End.Valid() && in.End <= in.Start {
		details["end_time"] = "End time must be after start time"
	}
	if utf8.RuneCountInString(in.SpecialRequests) > MaxSpecialRequestsLength {
		details["special_requests"] = fmt.Sprintf("Ensure this field has no more than %d characters", MaxSpecialRequestsLength)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid reservation request", details)
	}
	return nil
}
