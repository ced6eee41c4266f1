// Package handler contains the HTTP handlers.  Handlers bind and
// sanity-check input, call a service, and translate the service's typed
// error into a status code; they never touch the database directly.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seyi-ade/hostel-allocation/internal/service"
)

// statusForKind maps a service error kind to an HTTP status.
//
//	Conflict   → 409
//	Policy     → 403
//	Validation → 400
//	NotFound   → 404
//	Transient  → 503
func statusForKind(k service.Kind) int {
	switch k {
	case service.KindConflict:
		return http.StatusConflict
	case service.KindPolicy:
		return http.StatusForbidden
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes the uniform error envelope for a service error.  Untyped
// errors become opaque 500s; their detail stays in the logs.
func fail(c echo.Context, err error) error {
	var e *service.Error
	if errors.As(err, &e) {
		return c.JSON(statusForKind(e.Kind), echo.Map{
			"success": false,
			"error":   e.Code,
			"message": e.Message,
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"error":   "INTERNAL",
		"message": "internal server error",
	})
}
