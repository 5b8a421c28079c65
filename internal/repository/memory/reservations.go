package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
)

type reservationRepository struct {
	s *Store
}

var reservationComparators = map[string]func(a, b domain.Reservation) int{
	"id": func(a, b domain.Reservation) int { return compareInt64(a.ID, b.ID) },
	"reservation_date": func(a, b domain.Reservation) int {
		return compareTime(a.ReservationDate, b.ReservationDate)
	},
	"start_time": func(a, b domain.Reservation) int {
		return compareInt64(int64(a.StartTime), int64(b.StartTime))
	},
	"created_at": func(a, b domain.Reservation) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

func reservationID(r domain.Reservation) int64 { return r.ID }

func (r *reservationRepository) Create(_ context.Context, res *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[res.UserID]; !ok {
		return fmt.Errorf("user %d does not exist", res.UserID)
	}
	if _, ok := r.s.tables[res.TableID]; !ok {
		return fmt.Errorf("table %d does not exist", res.TableID)
	}
	for _, other := range r.s.reservations {
		if other.TableID == res.TableID &&
			other.ReservationDate.Equal(res.ReservationDate) &&
			other.StartTime == res.StartTime {
			return &repository.DuplicateError{Constraint: repository.ConstraintUniqueReservation}
		}
	}

	r.s.nextRes++
	now := r.s.now()
	res.ID = r.s.nextRes
	res.CreatedAt = now
	res.UpdatedAt = now
	stored := *res
	stored.Username = ""
	stored.TableName = ""
	r.s.reservations[res.ID] = stored
	return nil
}

func (r *reservationRepository) UpdateStatus(_ context.Context, id int64, status domain.ReservationStatus) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	res.Status = status
	res.UpdatedAt = r.s.now()
	r.s.reservations[id] = res
	return r.hydrate(res), nil
}

func (r *reservationRepository) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.hydrate(res), nil
}

func (r *reservationRepository) ListActiveForTableDate(_ context.Context, tableID int64, date time.Time, excludeID int64) ([]domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Reservation{}
	for _, res := range r.s.reservations {
		if res.TableID != tableID || !res.ReservationDate.Equal(date) || !res.Status.Active() {
			continue
		}
		if excludeID != 0 && res.ID == excludeID {
			continue
		}
		out = append(out, *r.hydrate(res))
	}
	sortBy(out, []repository.SortField{{Field: "start_time"}}, reservationComparators, reservationID)
	return out, nil
}

func (r *reservationRepository) FindActiveForUserTable(_ context.Context, userID, tableID int64) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	candidates := []domain.Reservation{}
	for _, res := range r.s.reservations {
		if res.UserID == userID && res.TableID == tableID && res.Status.Active() {
			candidates = append(candidates, res)
		}
	}
	if len(candidates) == 0 {
		return nil, repository.ErrNotFound
	}
	sortBy(candidates, []repository.SortField{{Field: "reservation_date"}, {Field: "start_time"}}, reservationComparators, reservationID)
	return r.hydrate(candidates[0]), nil
}

func (r *reservationRepository) ListWithFilter(_ context.Context, filter repository.ReservationFilter) ([]domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	statuses := map[domain.ReservationStatus]bool{}
	for _, st := range filter.Statuses {
		statuses[st] = true
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := []domain.Reservation{}
	for _, stored := range r.s.reservations {
		res := r.hydrate(stored)
		if filter.UserID != nil && res.UserID != *filter.UserID {
			continue
		}
		if filter.TableID != nil && res.TableID != *filter.TableID {
			continue
		}
		if filter.Date != nil && !res.ReservationDate.Equal(*filter.Date) {
			continue
		}
		if len(statuses) > 0 && !statuses[res.Status] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(res.Username), search) &&
			!strings.Contains(strings.ToLower(res.TableName), search) &&
			!strings.Contains(string(res.Status), search) {
			continue
		}
		out = append(out, *res)
	}

	orderBy := filter.OrderBy
	if len(orderBy) == 0 {
		orderBy = repository.DefaultReservationOrder
	}
	sortBy(out, orderBy, reservationComparators, func(res domain.Reservation) int64 { return -res.ID })
	return page(out, filter.Limit, filter.Offset), nil
}

// hydrate fills the joined user and table names. Callers hold the lock.
func (r *reservationRepository) hydrate(res domain.Reservation) *domain.Reservation {
	if user, ok := r.s.users[res.UserID]; ok {
		res.Username = user.Username
	}
	if table, ok := r.s.tables[res.TableID]; ok {
		res.TableName = table.Name
	}
	return &res
}
