package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablebook/reservation-service/internal/domain"
)

// TableFilter captures admin listing parameters.
type TableFilter struct {
	Search  string
	OrderBy []SortField
	Limit   int
	Offset  int
}

// AvailabilityFilter selects tables that can take a booking.
// The time-range exclusion only applies when Date, Start and End are all set.
type AvailabilityFilter struct {
	MinCapacity *int
	Date        *time.Time
	Start       *domain.TimeOfDay
	End         *domain.TimeOfDay
}

// HasRange reports whether the filter carries a complete date/time range.
func (f AvailabilityFilter) HasRange() bool {
	return f.Date != nil && f.Start != nil && f.End != nil
}

// TableSortColumns are the fields admins may order tables by.
var TableSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"capacity":   "capacity",
	"created_at": "created_at",
}

// TableRepository encapsulates table persistence.
type TableRepository interface {
	Create(ctx context.Context, table *domain.Table) error
	Update(ctx context.Context, table *domain.Table) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
	List(ctx context.Context, filter TableFilter) ([]domain.Table, error)
	ListAvailable(ctx context.Context, filter AvailabilityFilter) ([]domain.Table, error)
}

type tableRepository struct {
	pool *pgxpool.Pool
}

// NewTableRepository instantiates repository.
func NewTableRepository(pool *pgxpool.Pool) TableRepository {
	return &tableRepository{pool: pool}
}

const tableColumns = `id, name, capacity, is_available, location, created_at, updated_at`

func (r *tableRepository) Create(ctx context.Context, table *domain.Table) error {
	const query = `
        INSERT INTO restaurant_tables (name, capacity, is_available, location)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		table.Name,
		table.Capacity,
		table.IsAvailable,
		table.Location,
	).Scan(&table.ID, &table.CreatedAt, &table.UpdatedAt)
}

func (r *tableRepository) Update(ctx context.Context, table *domain.Table) error {
	const query = `
        UPDATE restaurant_tables SET name=$1, capacity=$2, is_available=$3, location=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		table.Name,
		table.Capacity,
		table.IsAvailable,
		table.Location,
		table.ID,
	).Scan(&table.UpdatedAt)
}

// Delete removes the table; reservations go with it through ON DELETE CASCADE.
func (r *tableRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM restaurant_tables WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tableRepository) GetByID(ctx context.Context, id int64) (*domain.Table, error) {
	var table domain.Table
	err := r.pool.QueryRow(ctx, `SELECT `+tableColumns+` FROM restaurant_tables WHERE id=$1`, id).Scan(
		&table.ID,
		&table.Name,
		&table.Capacity,
		&table.IsAvailable,
		&table.Location,
		&table.CreatedAt,
		&table.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) List(ctx context.Context, filter TableFilter) ([]domain.Table, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(location) LIKE %s)", placeholder, placeholder))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM restaurant_tables WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		tableColumns,
		strings.Join(clauses, " AND "),
		orderClause(filter.OrderBy, TableSortColumns, "id ASC"),
		limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTables(rows)
}

func (r *tableRepository) ListAvailable(ctx context.Context, filter AvailabilityFilter) ([]domain.Table, error) {
	clauses := []string{"t.is_available = TRUE"}
	args := []any{}

	if filter.MinCapacity != nil {
		args = append(args, *filter.MinCapacity)
		clauses = append(clauses, fmt.Sprintf("t.capacity >= $%d", len(args)))
	}
	if filter.HasRange() {
		args = append(args, *filter.Date, toPgTime(*filter.End), toPgTime(*filter.Start))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(`NOT EXISTS (
            SELECT 1 FROM reservations r
            WHERE r.table_id = t.id
              AND r.reservation_date = $%d
              AND r.status IN ('pending', 'confirmed')
              AND r.start_time < $%d
              AND r.end_time > $%d)`, n-2, n-1, n))
	}

	query := fmt.Sprintf(`SELECT t.id, t.name, t.capacity, t.is_available, t.location, t.created_at, t.updated_at
             FROM restaurant_tables t WHERE %s ORDER BY t.id ASC`, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTables(rows)
}

func scanTables(rows pgx.Rows) ([]domain.Table, error) {
	result := []domain.Table{}
	for rows.Next() {
		var table domain.Table
		if err := rows.Scan(
			&table.ID,
			&table.Name,
			&table.Capacity,
			&table.IsAvailable,
			&table.Location,
			&table.CreatedAt,
			&table.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, table)
	}
	return result, rows.Err()
}
