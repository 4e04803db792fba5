package delay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/kafka"
	"github.com/nasimair/flightops/internal/repository"
	"github.com/nasimair/flightops/internal/sms"
)

type DelayUseCase interface {
	ApplyDelay(ctx context.Context, tripID int64, minutes int, note string) (*Summary, error)
	ApplyStandardDelay(ctx context.Context, tripID int64) (*Summary, error)
}

// Summary reports the outcome of one delay action. The trip mutation always
// committed when a Summary comes back; the counters describe the best-effort
// notification fan-out.
type Summary struct {
	Trip      *domain.Trip
	Notified  bool
	Attempted int
	Sent      int
	Failed    int
}

type Registry interface {
	ConfirmedWithPhone(ctx context.Context, tripID int64) ([]domain.Booking, error)
}

type Locker interface {
	AcquireDelayLock(ctx context.Context, tripID int64, ttl time.Duration) (bool, error)
	ReleaseDelayLock(ctx context.Context, tripID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

var ErrUpdateInProgress = errors.New("another delay update for this trip is in progress")

type DelayService struct {
	trips       repository.TripRepository
	registry    Registry
	sender      sms.Sender
	locker      Locker
	producer    Producer
	delayTopic  string
	lockTTL     time.Duration
	sendTimeout time.Duration
}

type DelayServiceOption func(*DelayService)

func WithDelayTopic(topic string) DelayServiceOption {
	return func(s *DelayService) {
		s.delayTopic = topic
	}
}

func WithSendTimeout(timeout time.Duration) DelayServiceOption {
	return func(s *DelayService) {
		if timeout > 0 {
			s.sendTimeout = timeout
		}
	}
}

func NewDelayService(
	trips repository.TripRepository,
	registry Registry,
	sender sms.Sender,
	locker Locker,
	producer Producer,
	lockTTL time.Duration,
	opts ...DelayServiceOption,
) *DelayService {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	service := &DelayService{
		trips:       trips,
		registry:    registry,
		sender:      sender,
		locker:      locker,
		producer:    producer,
		lockTTL:     lockTTL,
		sendTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ApplyDelay records the delay on the trip, then notifies confirmed bookings
// with a phone number exactly once per distinct (trip, minutes) value. The
// trip mutation is durable before any notification is attempted and is never
// rolled back by send failures.
func (s *DelayService) ApplyDelay(ctx context.Context, tripID int64, minutes int, note string) (*Summary, error) {
	if minutes < 0 {
		return nil, domain.ErrInvalidDelay
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireDelayLock(ctx, tripID, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUpdateInProgress
		}
		defer func() {
			_ = s.locker.ReleaseDelayLock(ctx, tripID)
		}()
	}

	trip, err := s.trips.ApplyDelay(ctx, tripID, minutes, note)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Trip: trip}

	claimed, err := s.trips.ClaimDelayNotice(ctx, tripID, minutes)
	if err != nil {
		// The delay itself committed; skip the fan-out and leave the notice
		// unclaimed so a retried action picks it up.
		log.Printf("claim delay notice for trip %d: %v", tripID, err)
		return summary, nil
	}
	if !claimed {
		return summary, nil
	}

	summary.Notified = true
	s.fanOut(ctx, trip, summary)
	s.publishEvent(ctx, trip)
	return summary, nil
}

func (s *DelayService) ApplyStandardDelay(ctx context.Context, tripID int64) (*Summary, error) {
	return s.ApplyDelay(ctx, tripID, domain.StandardDelayMinutes, "")
}

// fanOut sends one SMS per recipient concurrently. Each send has its own
// timeout and its own failure: one stuck or failing recipient never blocks
// or cancels the rest.
func (s *DelayService) fanOut(ctx context.Context, trip *domain.Trip, summary *Summary) {
	bookings, err := s.registry.ConfirmedWithPhone(ctx, trip.ID)
	if err != nil {
		log.Printf("list notifiable bookings for trip %d: %v", trip.ID, err)
		return
	}

	message := delayMessage(trip)
	summary.Attempted = len(bookings)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, b := range bookings {
		wg.Add(1)
		go func(b domain.Booking) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
			defer cancel()

			if err := s.sender.Send(sendCtx, b.PassengerPhone, message); err != nil {
				log.Printf("delay sms for booking %s failed: %v", b.Reference, err)
				mu.Lock()
				summary.Failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			summary.Sent++
			mu.Unlock()
		}(b)
	}
	wg.Wait()
}

func (s *DelayService) publishEvent(ctx context.Context, trip *domain.Trip) {
	if s.producer == nil || s.delayTopic == "" {
		return
	}
	event := kafka.DelayEvent{
		EventID:           uuid.NewString(),
		TripID:            trip.ID,
		FlightCode:        trip.FlightCode,
		DelayMinutes:      trip.DelayMinutes,
		Note:              trip.DelayNote,
		EstimatedDepartAt: trip.EstimatedDepartAt(),
		OccurredAt:        time.Now(),
	}
	if err := s.producer.Publish(ctx, s.delayTopic, fmt.Sprintf("%d", trip.ID), event); err != nil {
		log.Printf("WARNING: failed to publish delay event for trip %d: %v", trip.ID, err)
	}
}

func delayMessage(trip *domain.Trip) string {
	departAt := trip.EstimatedDepartAt().UTC().Format("15:04 MST on Jan 2")
	if trip.DelayMinutes == 0 {
		return fmt.Sprintf("Flight %s is no longer delayed. Departure is back on schedule at %s.", trip.FlightCode, departAt)
	}
	message := fmt.Sprintf("Flight %s is delayed by %d minutes. New estimated departure: %s.", trip.FlightCode, trip.DelayMinutes, departAt)
	if trip.DelayNote != "" {
		message += " Reason: " + trip.DelayNote + "."
	}
	return message
}

var _ DelayUseCase = (*DelayService)(nil)
