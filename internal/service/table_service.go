package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

const (
	MaxTableNameLength     = 100
	MaxTableLocationLength = 100
)

// TableService answers availability queries and backs the admin table endpoints.
type TableService struct {
	tables     repository.TableRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      func() time.Time
}

// TableDependencies bundles collaborators for the table service.
type TableDependencies struct {
	TableRepo  repository.TableRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// AvailabilityQuery filters GET /tables. The time range only applies when Date, Start and End are all set.
type AvailabilityQuery struct {
	MinCapacity *int
	Date        *time.Time
	Start       *domain.TimeOfDay
	End         *domain.TimeOfDay
}

// TableListQuery drives the admin listing.
type TableListQuery struct {
	Search   string
	Ordering string
	Limit    int
	Offset   int
}

// TableInput is a full table definition used by create and replace.
type TableInput struct {
	Name        string
	Capacity    int
	IsAvailable bool
	Location    string
}

// TablePatch carries the fields of a partial update. Nil fields are left unchanged.
type TablePatch struct {
	Name        *string
	Capacity    *int
	IsAvailable *bool
	Location    *string
}

// NewTableService constructs the service.
func NewTableService(deps TableDependencies) *TableService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableService{tables: deps.TableRepo, dispatcher: deps.Dispatcher, logger: logger, clock: clock}
}

// Available lists bookable tables ordered by id.
func (s *TableService) Available(ctx context.Context, query AvailabilityQuery) ([]domain.Table, error) {
	if query.MinCapacity != nil && *query.MinCapacity < 1 {
		return nil, apperrors.NewFieldError("capacity", "Ensure this value is greater than or equal to 1")
	}
	if query.Start != nil && query.End != nil && *query.End <= *query.Start {
		return nil, apperrors.NewFieldError("end_time", "End time must be after start time")
	}

	filter := repository.AvailabilityFilter{MinCapacity: query.MinCapacity}
	if query.Date != nil {
		date := domain.DateOf(*query.Date)
		filter.Date = &date
	}
	filter.Start = query.Start
	filter.End = query.End
	return s.tables.ListAvailable(ctx, filter)
}

// List returns tables for the admin listing.
func (s *TableService) List(ctx context.Context, query TableListQuery) ([]domain.Table, error) {
	orderBy, err := ParseOrdering(query.Ordering, repository.TableSortColumns)
	if err != nil {
		return nil, err
	}
	return s.tables.List(ctx, repository.TableFilter{
		Search:  query.Search,
		OrderBy: orderBy,
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
}

// Get loads a single table.
func (s *TableService) Get(ctx context.Context, id int64) (*domain.Table, error) {
	table, err := s.tables.GetByID(ctx, id)
	if err != nil {
		return nil, tableNotFound(err, id)
	}
	return table, nil
}

// Create adds a table.
func (s *TableService) Create(ctx context.Context, input TableInput) (*domain.Table, error) {
	table := &domain.Table{
		Name:        strings.TrimSpace(input.Name),
		Capacity:    input.Capacity,
		IsAvailable: input.IsAvailable,
		Location:    strings.TrimSpace(input.Location),
	}
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := s.tables.Create(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// Replace overwrites every editable field of the table.
func (s *TableService) Replace(ctx context.Context, id int64, input TableInput) (*domain.Table, error) {
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	table.Name = strings.TrimSpace(input.Name)
	table.Capacity = input.Capacity
	table.IsAvailable = input.IsAvailable
	table.Location = strings.TrimSpace(input.Location)
	return s.save(ctx, table)
}

// Patch updates only the provided fields.
func (s *TableService) Patch(ctx context.Context, id int64, patch TablePatch) (*domain.Table, error) {
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		table.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Capacity != nil {
		table.Capacity = *patch.Capacity
	}
	if patch.IsAvailable != nil {
		table.IsAvailable = *patch.IsAvailable
	}
	if patch.Location != nil {
		table.Location = strings.TrimSpace(*patch.Location)
	}
	return s.save(ctx, table)
}

// Delete removes the table and, through the store, all of its reservations.
func (s *TableService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	table, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tables.Delete(ctx, id); err != nil {
		return tableNotFound(err, id)
	}

	if s.dispatcher != nil {
		event := events.NewEvent(events.EventTableDeleted, actor.ID, s.clock(), events.TableDeletedPayload{TableID: table.ID, Name: table.Name})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return nil
}

func (s *TableService) save(ctx context.Context, table *domain.Table) (*domain.Table, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := s.tables.Update(ctx, table); err != nil {
		return nil, tableNotFound(err, table.ID)
	}
	return table, nil
}

func checkTable(table *domain.Table) error {
	details := map[string]any{}
	if table.Name == "" {
		details["name"] = "This field may not be blank"
	} else if utf8.RuneCountInString(table.Name) > MaxTableNameLength {
		details["name"] = fmt.Sprintf("Ensure this field has no more than %d characters", MaxTableNameLength)
	}
	if table.Capacity <= 0 {
		details["capacity"] = "Capacity must be greater than zero"
	}
	if utf8.RuneCountInString(table.Location) > MaxTableLocationLength {
		details["location"] = fmt.Sprintf("Ensure this field has no more than %d characters", MaxTableLocationLength)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid table", details)
	}
	return nil
}

func tableNotFound(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("table", map[string]any{"table_id": id})
	}
	return err
}

// ParseOrdering turns "capacity,-name" into sort fields, rejecting names outside columns.
func ParseOrdering(ordering string, columns map[string]string) ([]repository.SortField, error) {
	var fields []repository.SortField
	for _, raw := range strings.Split(ordering, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		field := repository.SortField{Field: strings.TrimPrefix(name, "-"), Desc: strings.HasPrefix(name, "-")}
		if _, ok := columns[field.Field]; !ok {
			return nil, apperrors.NewFieldError("ordering", fmt.Sprintf("cannot order by %q", field.Field))
		}
		fields = append(fields, field)
	}
	return fields, nil
}
