package persistence

import (
	"github.com/tablebook/reservation-service/internal/repository"
	"github.com/tablebook/reservation-service/internal/repository/memory"
)

// Stores is the set of repositories the services run on.
type Stores struct {
	Users        repository.UserRepository
	Tables       repository.TableRepository
	Reservations repository.ReservationRepository
	Blacklist    repository.TokenBlacklist

	// Backend names the relational store: "postgres" or "memory".
	Backend string
}

// NewStores picks pgx repositories when Postgres is enabled and the in-memory store otherwise.
// The token blacklist follows Redis the same way.
func NewStores(pg *Postgres, redis *Redis) Stores {
	var stores Stores
	if pg.Enabled() {
		stores.Users = repository.NewUserRepository(pg.Pool)
		stores.Tables = repository.NewTableRepository(pg.Pool)
		stores.Reservations = repository.NewReservationRepository(pg.Pool)
		stores.Backend = "postgres"
	} else {
		mem := memory.NewStore()
		stores.Users = mem.Users()
		stores.Tables = mem.Tables()
		stores.Reservations = mem.Reservations()
		stores.Backend = "memory"
	}

	if redis != nil && redis.Client != nil {
		stores.Blacklist = repository.NewRedisTokenBlacklist(redis.Client)
	} else {
		stores.Blacklist = memory.NewTokenBlacklist()
	}
	return stores
}
