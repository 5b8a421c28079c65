package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/reservation-service/internal/domain"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&ReserveRequest{ReservationDate: "10/01/2025", SpecialRequests: strings.Repeat("x", 1001)})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Equal(t, "Invalid format, expected 2006-01-02", domainErr.Details["reservation_date"])
	assert.Equal(t, "This field is required", domainErr.Details["start_time"])
	assert.Equal(t, "This field is required", domainErr.Details["end_time"])
	assert.Equal(t, "This field is required", domainErr.Details["party_size"])
	assert.Equal(t, "Ensure this field has no more than 1000 characters", domainErr.Details["special_requests"])

	zero := 0
	assert.NoError(t, Validate(&ReserveRequest{ReservationDate: "2025-01-10", StartTime: "18:00", EndTime: "20:00", PartySize: &zero}),
		"party size bounds belong to the booking rules")
}

func TestValidateTableRequests(t *testing.T) {
	capacity := 0
	err := Validate(&TableRequest{Capacity: &capacity, Location: strings.Repeat("x", 101)})
	details := apperrors.ToDomainError(err).Details
	assert.Equal(t, "This field is required", details["name"])
	assert.Equal(t, "Ensure this value is greater than 0", details["capacity"])
	assert.Contains(t, details, "location")

	assert.NoError(t, Validate(&TablePatchRequest{}))
	negative := -2
	err = Validate(&TablePatchRequest{Capacity: &negative})
	assert.Contains(t, apperrors.ToDomainError(err).Details, "capacity")
}

func TestValidateEmail(t *testing.T) {
	err := Validate(&UpdateProfileRequest{Email: "nope"})
	assert.Equal(t, "Enter a valid email address", apperrors.ToDomainError(err).Details["email"])
	assert.NoError(t, Validate(&UpdateProfileRequest{Email: "a@example.com"}))
}

func TestReservationResponseJSON(t *testing.T) {
	res := &domain.Reservation{
		ID:              3,
		UserID:          1,
		Username:        "alice",
		TableID:         2,
		TableName:       "Window",
		ReservationDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       domain.NewTimeOfDay(18, 0, 0),
		EndTime:         domain.NewTimeOfDay(20, 0, 0),
		PartySize:       2,
		Status:          domain.ReservationStatusConfirmed,
	}
	raw, err := json.Marshal(NewReservationResponse(res))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "2025-01-10", body["reservation_date"])
	assert.Equal(t, "18:00", body["start_time"])
	assert.Equal(t, "20:00", body["end_time"])
	assert.Equal(t, "confirmed", body["status"])
	assert.Equal(t, "Window", body["table_name"])
}

func TestUserResponseIsAdmin(t *testing.T) {
	resp := NewUserResponse(&domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin})
	assert.True(t, resp.IsAdmin)
	resp = NewUserResponse(&domain.User{ID: 2, Username: "alice", Role: domain.RoleUser})
	assert.False(t, resp.IsAdmin)
}
