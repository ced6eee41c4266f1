// Package router wires handlers, middleware and roles onto the Echo
// instance.  Route policy lives here; handlers stay policy-free.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/seyi-ade/hostel-allocation/internal/config"
	"github.com/seyi-ade/hostel-allocation/internal/handler"
	"github.com/seyi-ade/hostel-allocation/internal/middleware"
	"github.com/seyi-ade/hostel-allocation/internal/model"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Allocation  *handler.AllocationHandler
	Reservation *handler.ReservationHandler
	Settings    *handler.SettingsHandler
	Maintenance *handler.MaintenanceHandler
}

// RegisterRoutes mounts the full API surface.
//
// Role policy: students reserve and cancel for themselves; porters and
// admins run allocations and reservation decisions; admins alone touch
// the maintenance surface.  Directors get the read-only views.
func RegisterRoutes(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Unauthenticated auth surface.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Everything else requires a valid access token.  Write endpoints
	// additionally pass the Redis token bucket, so one client cannot
	// hammer the allocation transaction.
	v1 := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	limited := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	v1.GET("/me", h.Auth.Me)
	v1.POST("/auth/logout-all", h.Auth.LogoutAll)
	v1.GET("/settings", h.Settings.Get)

	staff := middleware.RequireRole(model.RolePorter, model.RoleAdmin)
	admin := middleware.RequireRole(model.RoleAdmin)
	anyUser := middleware.RequireRole(model.RoleStudent, model.RolePorter, model.RoleAdmin, model.RoleDirector)

	// Allocations.
	v1.POST("/allocations", h.Allocation.Allocate, staff, limited)
	v1.GET("/allocations/:id", h.Allocation.Get, anyUser)
	v1.DELETE("/allocations/:id", h.Allocation.Deallocate, staff)
	v1.POST("/allocations/:id/check-in", h.Allocation.CheckIn, staff)

	// Reservations.  Cancel is the student's DELETE; the decision
	// endpoints belong to staff.
	v1.POST("/reservations", h.Reservation.Create, middleware.RequireRole(model.RoleStudent), limited)
	v1.GET("/my-reservations", h.Reservation.ListMine, middleware.RequireRole(model.RoleStudent))
	v1.GET("/reservations/:id", h.Reservation.Get, anyUser)
	v1.DELETE("/reservations/:id", h.Reservation.Cancel, middleware.RequireRole(model.RoleStudent))
	v1.POST("/reservations/:id/approve", h.Reservation.Approve, staff)
	v1.POST("/reservations/:id/reject", h.Reservation.Reject, staff)
	v1.POST("/reservations/:id/confirm", h.Reservation.Confirm, staff)

	// Maintenance.
	v1.GET("/rooms/:id/occupants", h.Maintenance.Occupants, staff)
	v1.POST("/rooms/:id/reconcile", h.Maintenance.Reconcile, admin)
	v1.POST("/maintenance/reset-allocations", h.Maintenance.ResetAllocations, admin)
}
