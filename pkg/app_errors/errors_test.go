package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrEventNotFound, http.StatusNotFound},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrEventFull, http.StatusForbidden},
		{ErrAlreadyRegistered, http.StatusConflict},
		{ErrAmountMismatch, http.StatusBadRequest},
		{ErrInvalidPaymentStatus, http.StatusBadRequest},
		{Invalid("price is required"), http.StatusBadRequest},
		{ErrRetryExhausted, http.StatusTooManyRequests},
		{ErrTicketCodeExhausted, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("lock: %w", ErrEventNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid("name is required")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, KindInvalidArgument, KindOf(err))
	assert.Equal(t, "name is required", PublicMessage(err))
}

func TestPublicMessageMasksInternal(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "event is at maximum capacity", PublicMessage(ErrEventFull))
}
