package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-ade/hostel-allocation/internal/service"
)

func failWith(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, fail(c, err))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

// Every error kind maps to its contract status, and the envelope carries
// the user-safe code and message.
func TestFailStatusByKind(t *testing.T) {
	cases := []struct {
		name   string
		err    *service.Error
		status int
	}{
		{"conflict", service.ErrBedUnavailable, http.StatusConflict},
		{"policy", service.ErrBookingDisabled, http.StatusForbidden},
		{"validation", service.ErrUnknownBed, http.StatusBadRequest},
		{"not found", service.ErrReservationNotFound, http.StatusNotFound},
		{"transient", service.Transient(errors.New("connection refused")), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := failWith(t, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.err.Code, body["error"])
			assert.Equal(t, tc.err.Message, body["message"])
		})
	}
}

func TestFailContractMessages(t *testing.T) {
	rec, body := failWith(t, service.ErrBedUnavailable)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Bed is already occupied", body["message"])

	rec, body = failWith(t, service.ErrRoomFull)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Room is full", body["message"])

	rec, body = failWith(t, service.ErrBookingDisabled)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Booking is currently disabled", body["message"])

	rec, body = failWith(t, service.ErrAlreadyAllocated)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You already have an active accommodation for this semester", body["message"])
}

// A wrapped service error still maps by its kind; the transient cause
// never leaks into the response body.
func TestFailUnwrapsNestedServiceError(t *testing.T) {
	cause := errors.New("driver: bad connection")
	rec, body := failWith(t, service.Transient(cause))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, body["message"], cause.Error())
}

// Untyped errors become opaque 500s.
func TestFailUntypedError(t *testing.T) {
	rec, body := failWith(t, errors.New("something unexpected"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", body["error"])
	assert.Equal(t, "internal server error", body["message"])
}
