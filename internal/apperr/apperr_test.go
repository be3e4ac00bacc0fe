package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", Forbidden("Only CEO or MANAGER can create projects"), http.StatusForbidden},
		{"validation", Validation("Duplicate user IDs are not allowed"), http.StatusBadRequest},
		{"not found folds into bad request", NotFound("Board"), http.StatusBadRequest},
		{"conflict", Conflict("User already exists"), http.StatusConflict},
		{"unauthenticated", Unauthenticated("Invalid credentials"), http.StatusUnauthorized},
		{"wrapped kind survives", fmt.Errorf("loading board: %w", NotFound("Board")), http.StatusBadRequest},
		{"plain error is internal", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	msg, fields := PublicMessage(NotFound("Card"))
	assert.Equal(t, "Card not found", msg)
	assert.Nil(t, fields)

	msg, fields = PublicMessage(InvalidFields(map[string]string{"name": "Name is required"}))
	assert.Equal(t, "Validation failed", msg)
	assert.Equal(t, "Name is required", fields["name"])

	msg, _ = PublicMessage(Internal(errors.New("pq: relation does not exist")))
	assert.Equal(t, "Internal server error", msg)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.True(t, Is(fmt.Errorf("x: %w", Conflict("dup")), KindConflict))
	assert.False(t, Is(nil, KindInternal))
	assert.Equal(t, "not_found", KindNotFound.String())
}

func TestInternal_Nil(t *testing.T) {
	assert.NoError(t, Internal(nil))
}
