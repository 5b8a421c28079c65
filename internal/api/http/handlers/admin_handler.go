package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
	"github.com/tablebook/reservation-service/internal/service"
)

// AdminHandler manages tables and the cross-user reservation listing.
type AdminHandler struct {
	tables       *service.TableService
	reservations *service.ReservationService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tables *service.TableService, reservations *service.ReservationService) *AdminHandler {
	return &AdminHandler{tables: tables, reservations: reservations}
}

// ListTables GET /admin/tables.
func (h *AdminHandler) ListTables(c *fiber.Ctx) error {
	limit, offset := page(c)
	tables, err := h.tables.List(c.UserContext(), service.TableListQuery{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewTableList(tables),
		"meta": dto.ListMeta{Count: len(tables), Limit: limit, Offset: offset},
	})
}

// CreateTable POST /admin/tables.
func (h *AdminHandler) CreateTable(c *fiber.Ctx) error {
	var req dto.TableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	table, err := h.tables.Create(c.UserContext(), tableInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTableResponse(table)})
}

// GetTable GET /admin/tables/:id.
func (h *AdminHandler) GetTable(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "table")
	if err != nil {
		return err
	}
	table, err := h.tables.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTableResponse(table)})
}

// ReplaceTable PUT /admin/tables/:id.
func (h *AdminHandler) ReplaceTable(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "table")
	if err != nil {
		return err
	}
	var req dto.TableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	table, err := h.tables.Replace(c.UserContext(), id, tableInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTableResponse(table)})
}

// PatchTable PATCH /admin/tables/:id.
func (h *AdminHandler) PatchTable(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "table")
	if err != nil {
		return err
	}
	var req dto.TablePatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	table, err := h.tables.Patch(c.UserContext(), id, service.TablePatch{
		Name:        req.Name,
		Capacity:    req.Capacity,
		IsAvailable: req.IsAvailable,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTableResponse(table)})
}

// DeleteTable DELETE /admin/tables/:id.
func (h *AdminHandler) DeleteTable(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "table")
	if err != nil {
		return err
	}
	if err := h.tables.Delete(c.UserContext(), principal.User, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListReservations GET /admin/reservations.
func (h *AdminHandler) ListReservations(c *fiber.Ctx) error {
	filter := repository.ReservationFilter{Search: strings.TrimSpace(c.Query("search"))}

	var err error
	if filter.UserID, err = queryInt64(c, "user_id"); err != nil {
		return err
	}
	if filter.TableID, err = queryInt64(c, "table_id"); err != nil {
		return err
	}
	if filter.Date, err = queryDate(c, "date"); err != nil {
		return err
	}
	status, err := queryStatus(c)
	if err != nil {
		return err
	}
	if status != nil {
		filter.Statuses = []domain.ReservationStatus{*status}
	}
	if filter.OrderBy, err = service.ParseOrdering(c.Query("ordering"), repository.ReservationSortColumns); err != nil {
		return err
	}
	filter.Limit, filter.Offset = page(c)

	reservations, err := h.reservations.ListAll(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewReservationList(reservations),
		"meta": dto.ListMeta{Count: len(reservations), Limit: filter.Limit, Offset: filter.Offset},
	})
}

func tableInput(req dto.TableRequest) service.TableInput {
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return service.TableInput{
		Name:        req.Name,
		Capacity:    *req.Capacity,
		IsAvailable: available,
		Location:    req.Location,
	}
}
