package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nasimair/flightops/config"
	"github.com/nasimair/flightops/internal/bootstrap"
	"github.com/nasimair/flightops/internal/cache"
	"github.com/nasimair/flightops/internal/kafka"
	"github.com/nasimair/flightops/internal/repository"
	"github.com/nasimair/flightops/internal/service/booking"
	"github.com/nasimair/flightops/internal/service/delay"
	"github.com/nasimair/flightops/internal/service/tracking"
	"github.com/nasimair/flightops/internal/service/trips"
	"github.com/nasimair/flightops/internal/sms"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Tracking.SnapshotCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	tripRepo := repository.NewTripRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	bookingService := booking.NewBookingService(
		bookingRepo,
		tripRepo,
		producer,
		booking.WithBookingTopic(cfg.Kafka.BookingEventsTopic),
	)
	tripService := trips.NewTripService(tripRepo, redisCache)
	trackingService := tracking.NewTrackingService(tripRepo, bookingService, redisCache)
	delayService := delay.NewDelayService(
		tripRepo,
		bookingService,
		sms.FromConfig(cfg.SMS),
		redisCache,
		producer,
		time.Duration(cfg.Delay.LockTTLSeconds)*time.Second,
		delay.WithDelayTopic(cfg.Kafka.DelayEventsTopic),
		delay.WithSendTimeout(time.Duration(cfg.Delay.SendTimeoutSeconds)*time.Second),
	)

	if err := bootstrap.Run(ctx, cfg, tripService, bookingService, trackingService, delayService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
