package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nasimair/flightops/config"
	"github.com/nasimair/flightops/internal/kafka"
	"github.com/nasimair/flightops/internal/repository"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	tripRepo := repository.NewTripRepository(pool)
	sender := sms.FromConfig(cfg.SMS)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
	defer consumer.Close()

	go func() {
		if err := consumer.ConsumeBookingEvents(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
			return notifyBooking(ctx, sender, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepEvery := time.Duration(cfg.Worker.StatusSweepMinutes) * time.Minute
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	sweepTicker := time.NewTicker(sweepEvery)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			touched, err := tripRepo.ReconcileStatuses(ctx, time.Now())
			if err != nil {
				log.Printf("reconcile trip statuses error: %v", err)
				continue
			}
			if touched > 0 {
				log.Printf("advanced status on %d trips", touched)
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}

// notifyBooking sends a lifecycle SMS for bookings that carry a phone number.
func notifyBooking(ctx context.Context, sender sms.Sender, event kafka.BookingEvent) error {
	if event.Phone == "" {
		return nil
	}

	var message string
	switch event.Type {
	case "booking_created":
		message = fmt.Sprintf("Your booking %s is registered. Confirm it to receive delay alerts and live tracking.", event.Reference)
	case "booking_confirmed":
		message = fmt.Sprintf("Booking %s confirmed. Live tracking unlocks 45 minutes before departure.", event.Reference)
	case "booking_cancelled":
		message = fmt.Sprintf("Booking %s has been cancelled.", event.Reference)
	default:
		return nil
	}

	if err := sender.Send(ctx, event.Phone, message); err != nil {
		log.Printf("booking sms for %s failed: %v", event.Reference, err)
	}
	return nil
}
