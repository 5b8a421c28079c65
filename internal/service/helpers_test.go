package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/observability"
	"github.com/tablebook/reservation-service/internal/repository/memory"
)

var fixedNow = time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	store        *memory.Store
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	published    []events.Event
	reservations *ReservationService
	tables       *TableService
	auth         *AuthService
	user, other  *domain.User
	admin        *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      memory.NewStore(),
		dispatcher: events.NewInMemoryDispatcher(),
		metrics:    observability.NewMetrics(),
	}
	record := func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	}
	f.dispatcher.Subscribe(events.EventReservationCreated, record)
	f.dispatcher.Subscribe(events.EventReservationCancelled, record)
	f.dispatcher.Subscribe(events.EventTableDeleted, record)

	f.reservations = NewReservationService(ReservationDependencies{
		ReservationRepo: f.store.Reservations(),
		TableRepo:       f.store.Tables(),
		Dispatcher:      f.dispatcher,
		Metrics:         f.metrics,
		Clock:           fixedClock,
		Location:        time.UTC,
	})
	f.tables = NewTableService(TableDependencies{
		TableRepo:  f.store.Tables(),
		Dispatcher: f.dispatcher,
		Clock:      fixedClock,
	})
	f.auth = NewAuthService(config.Config{Auth: config.AuthConfig{
		JWTSecret:              "test-secret",
		AccessTokenTTLMinutes:  5,
		RefreshTokenTTLMinutes: 60,
		BcryptCost:             bcrypt.MinCost,
	}}, AuthDependencies{
		UserRepo:  f.store.Users(),
		Blacklist: memory.NewTokenBlacklist(),
		Metrics:   f.metrics,
	})

	ctx := context.Background()
	f.user = &domain.User{Username: "alice", Email: "alice@example.com", Role: domain.RoleUser}
	f.other = &domain.User{Username: "bob", Email: "bob@example.com", Role: domain.RoleUser}
	f.admin = &domain.User{Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	for _, u := range []*domain.User{f.user, f.other, f.admin} {
		require.NoError(t, f.store.Users().Create(ctx, u))
	}
	return f
}

func (f *fixture) table(t *testing.T, name string, capacity int, available bool) *domain.Table {
	t.Helper()
	table, err := f.tables.Create(context.Background(), TableInput{Name: name, Capacity: capacity, IsAvailable: available})
	require.NoError(t, err)
	return table
}

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func hm(h, m int) domain.TimeOfDay { return domain.NewTimeOfDay(h, m, 0) }

func reserveInput(day string, startH, endH, party int) ReserveInput {
	return ReserveInput{Date: date(day), Start: hm(startH, 0), End: hm(endH, 0), PartySize: party}
}
