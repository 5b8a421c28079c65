package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tablebook/reservation-service/internal/domain"
)

const uniqueViolation = "23505"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = pgx.ErrNoRows

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// Constraint names shared by the SQL schema and the in-memory store.
const (
	ConstraintUniqueReservation = "unique_reservation"
	ConstraintUniqueUsername    = "users_username_key"
	ConstraintUniqueEmail       = "users_email_key"
)

// DuplicateError names the violated constraint.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record: %s", e.Constraint)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// ViolatedConstraint returns the constraint behind a duplicate error, if any.
func ViolatedConstraint(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Constraint, true
	}
	return "", false
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateError{Constraint: pgErr.ConstraintName}
	}
	return err
}

// SortField describes one ORDER BY term. Field names are validated by each repository.
type SortField struct {
	Field string
	Desc  bool
}

func orderClause(fields []SortField, columns map[string]string, fallback string) string {
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := columns[f.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	if len(terms) == 0 {
		return fallback
	}
	out := terms[0]
	for _, t := range terms[1:] {
		out += ", " + t
	}
	return out
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NormalizePage applies the default and maximum page size.
func NormalizePage(limit, offset int) (int, int) {
	return normalizePage(limit, offset)
}

func toPgTime(t domain.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 1_000_000, Valid: true}
}

func fromPgTime(t pgtype.Time) domain.TimeOfDay {
	return domain.TimeOfDay(t.Microseconds / 1_000_000)
}
