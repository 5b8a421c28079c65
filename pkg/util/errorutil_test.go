package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	conflict := NewReservationConflict("taken", map[string]any{"start_time": "18:00"})
	wrapped := fmt.Errorf("reserve: %w", conflict)
	de := ToDomainError(wrapped)
	assert.Equal(t, CodeReservationConflict, de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)

	de = ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)

	boom := errors.New("boom")
	de = ToDomainError(boom)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, de, boom)
}

func TestFieldError(t *testing.T) {
	err := NewFieldError("party_size", "must be greater than 0")
	de := ToDomainError(err)
	assert.Equal(t, CodeValidationFailed, de.Code)
	assert.Equal(t, "must be greater than 0", de.Details["party_size"])
	assert.True(t, HasCode(err, CodeValidationFailed))
	assert.False(t, HasCode(err, CodeNotFound))
}
