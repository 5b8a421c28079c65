// Package memory provides in-process implementations of the repository contracts.
// They back local runs without PostgreSQL/Redis and the service and HTTP tests, and
// enforce the same uniqueness and cascade rules as the SQL schema.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
)

// Store holds users, tables and reservations behind one lock so joins and
// cascades stay consistent.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	users        map[int64]domain.User
	tables       map[int64]domain.Table
	reservations map[int64]domain.Reservation
	nextUser     int64
	nextTable    int64
	nextRes      int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:          time.Now,
		users:        make(map[int64]domain.User),
		tables:       make(map[int64]domain.Table),
		reservations: make(map[int64]domain.Reservation),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return &userRepository{s: s} }

// Tables returns the table repository view of the store.
func (s *Store) Tables() repository.TableRepository { return &tableRepository{s: s} }

// Reservations returns the reservation repository view of the store.
func (s *Store) Reservations() repository.ReservationRepository {
	return &reservationRepository{s: s}
}

// sortBy orders items using the first matching comparator per field, ties broken by id.
func sortBy[T any](items []T, fields []repository.SortField, cmp map[string]func(a, b T) int, id func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, f := range fields {
			c, ok := cmp[f.Field]
			if !ok {
				continue
			}
			r := c(items[i], items[j])
			if f.Desc {
				r = -r
			}
			if r != 0 {
				return r < 0
			}
		}
		return id(items[i]) < id(items[j])
	})
}

func page[T any](items []T, limit, offset int) []T {
	limit, offset = repository.NormalizePage(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
