package memory

import (
	"context"
	"strings"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
)

type tableRepository struct {
	s *Store
}

var tableComparators = map[string]func(a, b domain.Table) int{
	"id":         func(a, b domain.Table) int { return compareInt64(a.ID, b.ID) },
	"name":       func(a, b domain.Table) int { return compareString(a.Name, b.Name) },
	"capacity":   func(a, b domain.Table) int { return compareInt64(int64(a.Capacity), int64(b.Capacity)) },
	"created_at": func(a, b domain.Table) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

func tableID(t domain.Table) int64 { return t.ID }

func (r *tableRepository) Create(_ context.Context, table *domain.Table) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextTable++
	now := r.s.now()
	table.ID = r.s.nextTable
	table.CreatedAt = now
	table.UpdatedAt = now
	r.s.tables[table.ID] = *table
	return nil
}

func (r *tableRepository) Update(_ context.Context, table *domain.Table) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tables[table.ID]
	if !ok {
		return repository.ErrNotFound
	}
	table.CreatedAt = existing.CreatedAt
	table.UpdatedAt = r.s.now()
	r.s.tables[table.ID] = *table
	return nil
}

func (r *tableRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tables[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tables, id)
	for resID, res := range r.s.reservations {
		if res.TableID == id {
			delete(r.s.reservations, resID)
		}
	}
	return nil
}

func (r *tableRepository) GetByID(_ context.Context, id int64) (*domain.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	table, ok := r.s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &table, nil
}

func (r *tableRepository) List(_ context.Context, filter repository.TableFilter) ([]domain.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := []domain.Table{}
	for _, table := range r.s.tables {
		if search != "" &&
			!strings.Contains(strings.ToLower(table.Name), search) &&
			!strings.Contains(strings.ToLower(table.Location), search) {
			continue
		}
		out = append(out, table)
	}
	sortBy(out, filter.OrderBy, tableComparators, tableID)
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *tableRepository) ListAvailable(_ context.Context, filter repository.AvailabilityFilter) ([]domain.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	busy := map[int64]bool{}
	if filter.HasRange() {
		for _, res := range r.s.reservations {
			if res.Status.Active() &&
				res.ReservationDate.Equal(*filter.Date) &&
				res.OverlapsRange(*filter.Start, *filter.End) {
				busy[res.TableID] = true
			}
		}
	}

	out := []domain.Table{}
	for _, table := range r.s.tables {
		if !table.IsAvailable || busy[table.ID] {
			continue
		}
		if filter.MinCapacity != nil && table.Capacity < *filter.MinCapacity {
			continue
		}
		out = append(out, table)
	}
	sortBy(out, nil, tableComparators, tableID)
	return out, nil
}
