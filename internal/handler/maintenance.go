package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seyi-ade/hostel-allocation/internal/service"
)

// MaintenanceHandler exposes the administrative operations: occupancy
// reconciliation and the session-rollover reset.  Both routes are
// restricted to admin roles by the router.
type MaintenanceHandler struct {
	svc *service.OccupancyService
}

// NewMaintenanceHandler constructs a MaintenanceHandler.
func NewMaintenanceHandler(svc *service.OccupancyService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc}
}

// Reconcile handles POST /v1/rooms/:id/reconcile.
func (h *MaintenanceHandler) Reconcile(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid room id"})
	}
	result, err := h.svc.Reconcile(c.Request().Context(), roomID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"result":  result,
	})
}

// Occupants handles GET /v1/rooms/:id/occupants, the staff view of who
// holds which bed in a room.
func (h *MaintenanceHandler) Occupants(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid room id"})
	}
	list, err := h.svc.Occupants(c.Request().Context(), roomID)
	if err != nil {
		return fail(c, err)
	}
	views := make([]echo.Map, 0, len(list))
	for i := range list {
		views = append(views, accommodationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"occupants": views,
	})
}

// ResetAllocations handles POST /v1/maintenance/reset-allocations.
func (h *MaintenanceHandler) ResetAllocations(c echo.Context) error {
	if err := h.svc.ResetAllocations(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "All allocations reset",
	})
}
