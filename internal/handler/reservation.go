package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/seyi-ade/hostel-allocation/internal/middleware"
	"github.com/seyi-ade/hostel-allocation/internal/model"
	"github.com/seyi-ade/hostel-allocation/internal/queue"
	"github.com/seyi-ade/hostel-allocation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.
type ReservationHandler struct {
	svc *service.ReservationService
	pub *queue.Publisher
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService, pub *queue.Publisher) *ReservationHandler {
	return &ReservationHandler{svc: svc, pub: pub}
}

type createReservationRequest struct {
	AcademicYear      string  `json:"academic_year"`
	Semester          string  `json:"semester"`
	PreferredHostelID *uint64 `json:"preferred_hostel_id"`
	PreferredRoomType *string `json:"preferred_room_type"`
	SpecialRequests   string  `json:"special_requests"`
}

// Create handles POST /v1/reservations.  The authenticated student is
// always the owner; preferences are passed through as hints.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid request body"})
	}
	studentID := middleware.UserID(c)
	period := model.Period{AcademicYear: req.AcademicYear, Semester: req.Semester}

	res, err := h.svc.Create(c.Request().Context(), studentID, period, service.CreateReservationInput{
		PreferredHostelID: req.PreferredHostelID,
		PreferredRoomType: req.PreferredRoomType,
		SpecialRequests:   req.SpecialRequests,
	})
	if err != nil {
		return fail(c, err)
	}

	h.pub.PublishAsync(queue.QueueReservationCreated, queue.ReservationCreatedEvent{
		EventID:       uuid.NewString(),
		ReservationID: res.ID,
		StudentID:     res.StudentID,
		Reference:     res.Reference,
		AcademicYear:  res.AcademicYear,
		Semester:      res.Semester,
		ExpiresAt:     res.ExpiresAt.Format(time.RFC3339),
		CreatedAt:     res.CreatedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"reservation": reservationView(res),
		"message":     "Reservation created",
	})
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	list, err := h.svc.ListByStudent(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	views := make([]echo.Map, 0, len(list))
	for i := range list {
		views = append(views, reservationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"reservations": views,
	})
}

// Get handles GET /v1/reservations/:id.  Students see only their own;
// staff see any.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := reservationID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid reservation id"})
	}
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if role, _ := c.Get("role").(string); role == model.RoleStudent && res.StudentID != middleware.UserID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "FORBIDDEN", "message": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"reservation": reservationView(res),
	})
}

// Approve handles POST /v1/reservations/:id/approve.  Staff only.
func (h *ReservationHandler) Approve(c echo.Context) error {
	return h.transition(c, h.svc.Approve, "Reservation approved")
}

// Reject handles POST /v1/reservations/:id/reject.  Staff only.
func (h *ReservationHandler) Reject(c echo.Context) error {
	return h.transition(c, h.svc.Reject, "Reservation rejected")
}

// Confirm handles POST /v1/reservations/:id/confirm.  Staff only.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	return h.transition(c, h.svc.Confirm, "Reservation confirmed")
}

// Cancel handles DELETE /v1/reservations/:id.  Owner only; the service
// enforces ownership.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok := reservationID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid reservation id"})
	}
	if err := h.svc.Cancel(c.Request().Context(), id, middleware.UserID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Reservation cancelled"})
}

func (h *ReservationHandler) transition(c echo.Context, op func(ctx context.Context, id uint64) error, msg string) error {
	id, ok := reservationID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "BAD_REQUEST", "message": "invalid reservation id"})
	}
	if err := op(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

func reservationID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

func reservationView(r *model.Reservation) echo.Map {
	v := echo.Map{
		"id":            r.ID,
		"student_id":    r.StudentID,
		"reference":     r.Reference,
		"academic_year": r.AcademicYear,
		"semester":      r.Semester,
		"status":        r.Status,
		"created_at":    r.CreatedAt,
		"expires_at":    r.ExpiresAt,
	}
	if r.PreferredHostelID != nil {
		v["preferred_hostel_id"] = *r.PreferredHostelID
	}
	if r.PreferredRoomType != nil {
		v["preferred_room_type"] = *r.PreferredRoomType
	}
	if r.SpecialRequests != "" {
		v["special_requests"] = r.SpecialRequests
	}
	return v
}
