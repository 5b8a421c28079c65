package dto

import (
	"time"

	"github.com/tablebook/reservation-service/internal/domain"
)

// TableRequest is the full table payload for POST and PUT.
type TableRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Capacity    *int   `json:"capacity" validate:"required,gt=0"`
	IsAvailable *bool  `json:"is_available"`
	Location    string `json:"location" validate:"max=100"`
}

// TablePatchRequest is the partial payload for PATCH. Absent fields stay unchanged.
type TablePatchRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gt=0"`
	IsAvailable *bool   `json:"is_available"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
}

// TableResponse is the public view of a table.
type TableResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	IsAvailable bool      `json:"is_available"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListMeta accompanies paginated admin listings.
type ListMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewTableResponse maps a domain table.
func NewTableResponse(table *domain.Table) TableResponse {
	return TableResponse{
		ID:          table.ID,
		Name:        table.Name,
		Capacity:    table.Capacity,
		IsAvailable: table.IsAvailable,
		Location:    table.Location,
		CreatedAt:   table.CreatedAt,
		UpdatedAt:   table.UpdatedAt,
	}
}

// NewTableList maps a slice of tables.
func NewTableList(tables []domain.Table) []TableResponse {
	items := make([]TableResponse, 0, len(tables))
	for i := range tables {
		items = append(items, NewTableResponse(&tables[i]))
	}
	return items
}
