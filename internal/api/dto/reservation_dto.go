package dto

import (
	"time"

	"github.com/tablebook/reservation-service/internal/domain"
)

// ReserveRequest payload for POST /tables/:id/reserve. Times accept HH:MM or HH:MM:SS.
type ReserveRequest struct {
	ReservationDate string `json:"reservation_date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required"`
	EndTime         string `json:"end_time" validate:"required"`
	PartySize       *int   `json:"party_size" validate:"required"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

// ReservationResponse is the public view of a reservation.
type ReservationResponse struct {
	ID              int64                    `json:"id"`
	UserID          int64                    `json:"user_id"`
	Username        string                   `json:"username"`
	TableID         int64                    `json:"table_id"`
	TableName       string                   `json:"table_name"`
	ReservationDate string                   `json:"reservation_date"`
	StartTime       domain.TimeOfDay         `json:"start_time"`
	EndTime         domain.TimeOfDay         `json:"end_time"`
	PartySize       int                      `json:"party_size"`
	Status          domain.ReservationStatus `json:"status"`
	SpecialRequests string                   `json:"special_requests"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// NewReservationResponse maps a domain reservation.
func NewReservationResponse(res *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              res.ID,
		UserID:          res.UserID,
		Username:        res.Username,
		TableID:         res.TableID,
		TableName:       res.TableName,
		ReservationDate: domain.FormatDate(res.ReservationDate),
		StartTime:       res.StartTime,
		EndTime:         res.EndTime,
		PartySize:       res.PartySize,
		Status:          res.Status,
		SpecialRequests: res.SpecialRequests,
		CreatedAt:       res.CreatedAt,
		UpdatedAt:       res.UpdatedAt,
	}
}

// NewReservationList maps a slice of reservations.
func NewReservationList(reservations []domain.Reservation) []ReservationResponse {
	items := make([]ReservationResponse, 0, len(reservations))
	for i := range reservations {
		items = append(items, NewReservationResponse(&reservations[i]))
	}
	return items
}
