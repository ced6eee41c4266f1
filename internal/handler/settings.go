package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seyi-ade/hostel-allocation/internal/service"
)

// SettingsHandler exposes the read-only booking policy snapshot.
// Writes go through the administrative path, not this API.
type SettingsHandler struct {
	gate *service.PolicyGate
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(gate *service.PolicyGate) *SettingsHandler {
	return &SettingsHandler{gate: gate}
}

// Get handles GET /v1/settings.
func (h *SettingsHandler) Get(c echo.Context) error {
	snap, err := h.gate.CurrentSettings(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"settings": snap,
	})
}
