package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/seyi-ade/hostel-allocation/internal/model"
	"github.com/seyi-ade/hostel-allocation/internal/queue"
	"github.com/seyi-ade/hostel-allocation/internal/service"
)

// AllocationHandler exposes the allocation transaction over HTTP.
type AllocationHandler struct {
	svc *service.AllocationService
	pub *queue.Publisher
}

// NewAllocationHandler constructs an AllocationHandler.
func NewAllocationHandler(svc *service.AllocationService, pub *queue.Publisher) *AllocationHandler {
	return &AllocationHandler{svc: svc, pub: pub}
}

type allocateRequest struct {
	StudentID    uint64 `json:"student_id"`
	RoomID       uint64 `json:"room_id"`
	BedID        uint64 `json:"bed_id"`
	AcademicYear string `json:"academic_year"`
	Semester     string `json:"semester"`
}

// Allocate handles POST /v1/allocations.  The route is staff-only, so
// the target student always arrives as an explicit student_id.  The
// outcome is decided entirely inside the service transaction, so
// concurrent requests for one bed resolve to exactly one 201 and the
// rest 409.
func (h *AllocationHandler) Allocate(c echo.Context) error {
	var req allocateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid request body"})
	}
	studentID := req.StudentID
	if studentID == 0 || req.RoomID == 0 || req.BedID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "student_id, room_id and bed_id are required"})
	}
	period := model.Period{AcademicYear: req.AcademicYear, Semester: req.Semester}

	accID, err := h.svc.Allocate(c.Request().Context(), studentID, req.RoomID, req.BedID, period)
	if err != nil {
		return fail(c, err)
	}

	h.pub.PublishAsync(queue.QueueAccommodationAllocated, queue.AccommodationAllocatedEvent{
		EventID:         uuid.NewString(),
		AccommodationID: accID,
		StudentID:       studentID,
		RoomID:          req.RoomID,
		BedID:           req.BedID,
		AcademicYear:    period.AcademicYear,
		Semester:        period.Semester,
		AllocatedAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success":          true,
		"accommodation_id": accID,
		"message":          "Bed allocated successfully",
	})
}

// Deallocate handles DELETE /v1/allocations/:id.
func (h *AllocationHandler) Deallocate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid accommodation id"})
	}

	acc, err := h.svc.GetAccommodation(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if err := h.svc.Deallocate(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}

	h.pub.PublishAsync(queue.QueueAccommodationReleased, queue.AccommodationReleasedEvent{
		EventID:         uuid.NewString(),
		AccommodationID: acc.ID,
		StudentID:       acc.StudentID,
		RoomID:          acc.RoomID,
		ReleasedAt:      time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Accommodation released",
	})
}

// CheckIn handles POST /v1/allocations/:id/check-in.
func (h *AllocationHandler) CheckIn(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid accommodation id"})
	}
	if err := h.svc.CheckIn(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Checked in",
	})
}

// Get handles GET /v1/allocations/:id.
func (h *AllocationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid accommodation id"})
	}
	acc, err := h.svc.GetAccommodation(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"accommodation": accommodationView(acc),
	})
}

func accommodationView(acc *model.Accommodation) echo.Map {
	v := echo.Map{
		"id":            acc.ID,
		"student_id":    acc.StudentID,
		"room_id":       acc.RoomID,
		"academic_year": acc.AcademicYear,
		"semester":      acc.Semester,
		"is_active":     acc.IsActive,
		"allocated_at":  acc.AllocatedAt,
	}
	if acc.BedID != nil {
		v["bed_id"] = *acc.BedID
	}
	if acc.CheckedInAt != nil {
		v["checked_in_at"] = *acc.CheckedInAt
	}
	if acc.CheckedOutAt != nil {
		v["checked_out_at"] = *acc.CheckedOutAt
	}
	return v
}
