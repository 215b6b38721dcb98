package registration_api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rani-Boora/campus-event-hub/internal/logger"
	"github.com/Rani-Boora/campus-event-hub/internal/registration"
)

// Tests start here

func TestWriteErrorStatusMapping(t *testing.T) {
	h := &Handler{Logger: &logger.Logger{}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"event not found", registration.ErrEventNotFound, http.StatusNotFound},
		{"registration not found", registration.ErrRegistrationNotFound, http.StatusNotFound},
		{"not published", registration.ErrEventNotPublished, http.StatusBadRequest},
		{"deadline passed", registration.ErrDeadlinePassed, http.StatusBadRequest},
		{"event full", registration.ErrEventFull, http.StatusBadRequest},
		{"invalid status", registration.ErrInvalidStatus, http.StatusBadRequest},
		{"already registered", registration.ErrAlreadyRegistered, http.StatusConflict},
		{"not owner", registration.ErrNotOwner, http.StatusForbidden},
		{"admission busy", registration.ErrAdmissionBusy, http.StatusServiceUnavailable},
		{"unexpected", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

// A duplicate caught by the store's unique index must answer exactly like
// one caught by the pre-check.
func TestWriteErrorDuplicateMessageParity(t *testing.T) {
	h := &Handler{Logger: &logger.Logger{}}

	rec := httptest.NewRecorder()
	h.writeError(rec, registration.ErrAlreadyRegistered)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), registration.ErrAlreadyRegistered.Error())
}
