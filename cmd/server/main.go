package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/susatyo441/food-app/pkg/cache"
	"github.com/susatyo441/food-app/pkg/config"
	"github.com/susatyo441/food-app/pkg/database"
	"github.com/susatyo441/food-app/pkg/limiter"
	"github.com/susatyo441/food-app/pkg/notify"
	"github.com/susatyo441/food-app/pkg/quota"
	"github.com/susatyo441/food-app/pkg/server"
	"github.com/susatyo441/food-app/pkg/service"
)

const (
	gracefulTimeout = time.Second * 15
)

func main() {
	cfg := config.New()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("### Can't load timezone %q: %v", cfg.Timezone, err)
	}

	db, closeDB, err := database.New(cfg.PostgresAddr, cfg.PostgresDB, cfg.PostgresUser, cfg.PostgresPassword)
	if err != nil {
		log.Fatalf("### Can't init database: %v", err)
	}
	defer closeDB()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("### Can't run migrations: %v", err)
	}

	redisClient, closeRedis, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisUser, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("### Can't init redis: %v", err)
	}
	defer closeRedis()

	reservationSvc, reviewSvc, extendSvc := composeServices(db, redisClient, loc, cfg)

	srv, err := server.New(cfg.ListenAddr, reservationSvc, reviewSvc, extendSvc)
	if err != nil {
		log.Fatalf("### Can't create server: %v", err)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("### Can't listen and serve: %v", err)
		}
	}()
	slog.Info(fmt.Sprintf("HTTP server listening at %s", srv.Addr))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()

	srv.Shutdown(ctx)
}

func composeServices(db *sql.DB, redisClient *redis.Client, loc *time.Location, cfg *config.Config) (service.Reservation, service.Review, service.Extend) {
	reservations := &database.ReservationDatabase{DB: db}
	extends := &database.ExtendDatabase{DB: db}

	calc := &quota.Calculator{
		Reservations: reservations,
		Extends:      extends,
		Base:         cfg.BaseQuota,
		Location:     loc,
	}

	sender := &notify.Sender{Store: &database.NotificationDatabase{DB: db}}

	var reservationSvc service.Reservation = &service.ReservationGeneric{
		Posts:        &database.PostDatabase{DB: db},
		Reservations: reservations,
		Quotas:       calc,
		Notifier:     sender,
		PickupWindow: cfg.PickupWindow,
	}

	reservationSvc = &service.ReservationLimiting{
		Reservation: reservationSvc,
		Limiter:     &limiter.Limiter{Redis: redisClient, Limit: cfg.AttemptsLimit, Location: loc},
		FailOpen:    cfg.LimiterFailOpen,
	}
	reservationSvc = &service.ReservationLogging{Reservation: reservationSvc}

	var reviewSvc service.Review = &service.ReviewGeneric{Reservations: reservations}
	if cfg.CacheReviews {
		reviewSvc = &service.ReviewCaching{Review: reviewSvc, Redis: redisClient, TTL: cfg.ReviewCacheTTL}
	}

	extendSvc := &service.ExtendGeneric{Extends: extends, Validity: cfg.ExtendValidity}

	return reservationSvc, reviewSvc, extendSvc
}

func parseLogLevel(lvl string) slog.Level {
	switch lvl {
	case slog.LevelDebug.String():
		return slog.LevelDebug
	case slog.LevelInfo.String():
		return slog.LevelInfo
	case slog.LevelWarn.String():
		return slog.LevelWarn
	case slog.LevelError.String():
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
