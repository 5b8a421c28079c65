package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablebook/reservation-service/internal/domain"
)

// ReservationFilter captures history and admin listing parameters.
type ReservationFilter struct {
	UserID   *int64
	TableID  *int64
	Date     *time.Time
	Statuses []domain.ReservationStatus
	// Search matches username, table name or status, case-insensitively.
	Search  string
	OrderBy []SortField
	Limit   int
	Offset  int
}

// ReservationSortColumns are the fields reservations may be ordered by.
var ReservationSortColumns = map[string]string{
	"id":               "r.id",
	"reservation_date": "r.reservation_date",
	"start_time":       "r.start_time",
	"created_at":       "r.created_at",
}

// DefaultReservationOrder lists newest bookings first.
var DefaultReservationOrder = []SortField{
	{Field: "reservation_date", Desc: true},
	{Field: "start_time", Desc: true},
}

// ReservationRepository encapsulates reservation persistence.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) (*domain.Reservation, error)
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	// ListActiveForTableDate returns pending/confirmed bookings of a table on a date,
	// skipping excludeID when it is non-zero.
	ListActiveForTableDate(ctx context.Context, tableID int64, date time.Time, excludeID int64) ([]domain.Reservation, error)
	// FindActiveForUserTable returns the user's earliest active booking of the table.
	FindActiveForUserTable(ctx context.Context, userID, tableID int64) (*domain.Reservation, error)
	ListWithFilter(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error)
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository instantiates repository.
func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

const reservationSelect = `
        SELECT r.id, r.user_id, r.table_id, r.reservation_date, r.start_time, r.end_time,
               r.party_size, r.status, r.special_requests, r.created_at, r.updated_at,
               u.username, t.name
        FROM reservations r
        JOIN users u ON u.id = r.user_id
        JOIN restaurant_tables t ON t.id = r.table_id`

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	const query = `
        INSERT INTO reservations (user_id, table_id, reservation_date, start_time, end_time, party_size, status, special_requests)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		reservation.UserID,
		reservation.TableID,
		reservation.ReservationDate,
		toPgTime(reservation.StartTime),
		toPgTime(reservation.EndTime),
		reservation.PartySize,
		reservation.Status,
		reservation.SpecialRequests,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)
	return translateError(err)
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) (*domain.Reservation, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE reservations SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, reservationSelect+` WHERE r.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return firstReservation(rows)
}

func (r *reservationRepository) ListActiveForTableDate(ctx context.Context, tableID int64, date time.Time, excludeID int64) ([]domain.Reservation, error) {
	query := reservationSelect + `
        WHERE r.table_id=$1 AND r.reservation_date=$2
          AND r.status IN ('pending', 'confirmed')
          AND r.id <> $3
        ORDER BY r.start_time ASC`
	rows, err := r.pool.Query(ctx, query, tableID, date, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *reservationRepository) FindActiveForUserTable(ctx context.Context, userID, tableID int64) (*domain.Reservation, error) {
	query := reservationSelect + `
        WHERE r.user_id=$1 AND r.table_id=$2
          AND r.status IN ('pending', 'confirmed')
        ORDER BY r.reservation_date ASC, r.start_time ASC
        LIMIT 1`
	rows, err := r.pool.Query(ctx, query, userID, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return firstReservation(rows)
}

func (r *reservationRepository) ListWithFilter(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("r.user_id=$%d", len(args)))
	}
	if filter.TableID != nil {
		args = append(args, *filter.TableID)
		clauses = append(clauses, fmt.Sprintf("r.table_id=$%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		clauses = append(clauses, fmt.Sprintf("r.reservation_date=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("r.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(u.username) LIKE %s OR LOWER(t.name) LIKE %s OR LOWER(r.status) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	orderBy := filter.OrderBy
	if len(orderBy) == 0 {
		orderBy = DefaultReservationOrder
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s, r.id DESC LIMIT %d OFFSET %d`,
		reservationSelect,
		strings.Join(clauses, " AND "),
		orderClause(orderBy, ReservationSortColumns, "r.reservation_date DESC, r.start_time DESC"),
		limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func firstReservation(rows pgx.Rows) (*domain.Reservation, error) {
	list, err := scanReservations(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &list[0], nil
}

func scanReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	result := []domain.Reservation{}
	for rows.Next() {
		var (
			res        domain.Reservation
			start, end pgtype.Time
		)
		if err := rows.Scan(
			&res.ID,
			&res.UserID,
			&res.TableID,
			&res.ReservationDate,
			&start,
			&end,
			&res.PartySize,
			&res.Status,
			&res.SpecialRequests,
			&res.CreatedAt,
			&res.UpdatedAt,
			&res.Username,
			&res.TableName,
		); err != nil {
			return nil, err
		}
		res.StartTime = fromPgTime(start)
		res.EndTime = fromPgTime(end)
		result = append(result, res)
	}
	return result, rows.Err()
}
