package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/seyi-ade/hostel-allocation/internal/config"
	"github.com/seyi-ade/hostel-allocation/internal/database"
	"github.com/seyi-ade/hostel-allocation/internal/handler"
	"github.com/seyi-ade/hostel-allocation/internal/logging"
	"github.com/seyi-ade/hostel-allocation/internal/metrics"
	"github.com/seyi-ade/hostel-allocation/internal/queue"
	"github.com/seyi-ade/hostel-allocation/internal/repository"
	"github.com/seyi-ade/hostel-allocation/internal/router"
	"github.com/seyi-ade/hostel-allocation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Env)

	var (
		db  *database.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite3":
		db, err = database.OpenSQLite(cfg.SQLitePath)
	default:
		db, err = database.OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	metrics.Register()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	beds := repository.NewBedRepo(db)
	accs := repository.NewAccommodationRepo(db)
	bookings := repository.NewBookingRepo(db)
	reservations := repository.NewReservationRepo(db)
	settings := repository.NewSettingRepo(db)

	gate := service.NewPolicyGate(service.NewSettingsCache(settings, cfg.SettingsTTL))
	allocSvc := service.NewAllocationService(db, users, rooms, beds, accs, bookings, reservations, gate, logger)
	resSvc := service.NewReservationService(db, users, accs, bookings, reservations, gate, logger)
	occSvc := service.NewOccupancyService(db, rooms, beds, accs, bookings, reservations, logger)

	pub := queue.NewPublisher(cfg.RabbitURL, logger)
	if pub.Enabled() {
		go func() {
			if err := queue.StartAllocationConsumer(cfg.RabbitURL); err != nil {
				logger.Error().Err(err).Msg("allocation consumer stopped")
			}
		}()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, router.Handlers{
		Auth:        handler.NewAuthHandler(users, tokens, cfg),
		Allocation:  handler.NewAllocationHandler(allocSvc, pub),
		Reservation: handler.NewReservationHandler(resSvc, pub),
		Settings:    handler.NewSettingsHandler(gate),
		Maintenance: handler.NewMaintenanceHandler(occSvc),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Str("driver", cfg.DBDriver).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
