package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/service"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// TablesHandler serves the customer-facing table and reservation endpoints.
type TablesHandler struct {
	tables       *service.TableService
	reservations *service.ReservationService
}

// NewTablesHandler constructs handler.
func NewTablesHandler(tables *service.TableService, reservations *service.ReservationService) *TablesHandler {
	return &TablesHandler{tables: tables, reservations: reservations}
}

// Available handles GET /tables.
func (h *TablesHandler) Available(c *fiber.Ctx) error {
	var (
		query service.AvailabilityQuery
		err   error
	)
	if query.MinCapacity, err = queryInt(c, "capacity"); err != nil {
		return err
	}
	if query.Date, err = queryDate(c, "date"); err != nil {
		return err
	}
	if query.Start, err = queryTime(c, "start_time"); err != nil {
		return err
	}
	if query.End, err = queryTime(c, "end_time"); err != nil {
		return err
	}

	tables, err := h.tables.Available(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTableList(tables)})
}

// Reserve handles POST /tables/:id/reserve.
func (h *TablesHandler) Reserve(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	tableID, err := pathID(c, "id", "table")
	if err != nil {
		return err
	}
	var req dto.ReserveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input, err := reserveInput(req)
	if err != nil {
		return err
	}

	reservation, err := h.reservations.Reserve(c.UserContext(), principal.User, tableID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewReservationResponse(reservation)})
}

// Cancel handles DELETE /tables/:id/cancel.
func (h *TablesHandler) Cancel(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	tableID, err := pathID(c, "id", "table")
	if err != nil {
		return err
	}
	reservationID, err := queryInt64(c, "reservation_id")
	if err != nil {
		return err
	}

	if _, err := h.reservations.Cancel(c.UserContext(), principal.User, tableID, reservationID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// History handles GET /tables/history.
func (h *TablesHandler) History(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	status, err := queryStatus(c)
	if err != nil {
		return err
	}
	limit, offset := page(c)

	reservations, err := h.reservations.History(c.UserContext(), principal.User.ID, service.HistoryQuery{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReservationList(reservations)})
}

func reserveInput(req dto.ReserveRequest) (service.ReserveInput, error) {
	details := map[string]any{}
	day, err := domain.ParseDate(req.ReservationDate)
	if err != nil {
		details["reservation_date"] = "Date has wrong format. Use YYYY-MM-DD"
	}
	start, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		details["start_time"] = "Time has wrong format. Use HH:MM or HH:MM:SS"
	}
	end, err := domain.ParseTimeOfDay(req.EndTime)
	if err != nil {
		details["end_time"] = "Time has wrong format. Use HH:MM or HH:MM:SS"
	}
	if len(details) > 0 {
		return service.ReserveInput{}, apperrors.NewValidationError("invalid reservation request", details)
	}
	return service.ReserveInput{
		Date:            day,
		Start:           start,
		End:             end,
		PartySize:       *req.PartySize,
		SpecialRequests: req.SpecialRequests,
	}, nil
}
