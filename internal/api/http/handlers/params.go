package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/domain"
	"github.com/tablebook/reservation-service/internal/repository"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// bind decodes the JSON body into req and runs its validate tags.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

// pathID parses a positive integer route parameter. Malformed ids are treated as missing resources.
func pathID(c *fiber.Ctx, name, resource string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound(resource, nil)
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewFieldError(name, "A valid integer is required")
	}
	return &v, nil
}

func queryInt64(c *fiber.Ctx, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewFieldError(name, "A valid integer is required")
	}
	return &v, nil
}

func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, apperrors.NewFieldError(name, "Date has wrong format. Use YYYY-MM-DD")
	}
	return &d, nil
}

func queryTime(c *fiber.Ctx, name string) (*domain.TimeOfDay, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return nil, apperrors.NewFieldError(name, "Time has wrong format. Use HH:MM or HH:MM:SS")
	}
	return &t, nil
}

func queryStatus(c *fiber.Ctx) (*domain.ReservationStatus, error) {
	raw := strings.TrimSpace(c.Query("status"))
	if raw == "" {
		return nil, nil
	}
	status := domain.ReservationStatus(strings.ToLower(raw))
	if !status.Valid() {
		return nil, apperrors.NewFieldError("status", "Select a valid choice")
	}
	return &status, nil
}

// page reads limit/offset, clamped to the repository bounds.
func page(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)
	return repository.NormalizePage(limit, offset)
}
