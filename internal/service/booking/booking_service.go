package booking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/kafka"
	"github.com/nasimair/flightops/internal/repository"
)

// BookingUseCase is the booking registry: it issues references, resolves
// them back to trips, and drives the booking lifecycle.
type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, reference string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, reference string) (*domain.Booking, error)
	Validate(ctx context.Context, tripID int64, reference string) (bool, error)
	ConfirmedWithPhone(ctx context.Context, tripID int64) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// referenceAttempts bounds retries when a generated reference collides with
// the unique constraint. At 2^50 token space a single retry is already rare.
const referenceAttempts = 5

type BookingService struct {
	bookings     repository.BookingRepository
	trips        repository.TripRepository
	producer     Producer
	bookingTopic string
}

type CreateBookingInput struct {
	TripID         int64  `json:"trip_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PassengerPhone string `json:"passenger_phone"`
	Seats          int    `json:"seats"`
}

type BookingServiceOption func(*BookingService)

func WithBookingTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.bookingTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	trips repository.TripRepository,
	producer Producer,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		trips:    trips,
		producer: producer,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.PassengerName == "" {
		return nil, errors.New("passenger name is required")
	}
	if input.Seats <= 0 {
		input.Seats = 1
	}

	trip, err := s.trips.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		TripID:         trip.ID,
		PassengerName:  input.PassengerName,
		PassengerEmail: input.PassengerEmail,
		PassengerPhone: strings.TrimSpace(input.PassengerPhone),
		Seats:          input.Seats,
		Status:         domain.BookingStatusPending,
	}

	for attempt := 0; attempt < referenceAttempts; attempt++ {
		reference, err := domain.NewBookingReference()
		if err != nil {
			return nil, err
		}
		booking.Reference = reference

		err = s.bookings.Create(ctx, booking)
		if errors.Is(err, domain.ErrReferenceTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publish(ctx, "booking_created", booking, trip.FlightCode)
		return booking, nil
	}
	return nil, errors.New("could not allocate a unique booking reference")
}

func (s *BookingService) ConfirmBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	current, err := s.bookings.GetByReference(ctx, normalizeReference(reference))
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, errors.New("booking is not pending")
	}

	updated, err := s.bookings.UpdateStatus(ctx, current.Reference, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "booking_confirmed", updated, "")
	return updated, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	current, err := s.bookings.GetByReference(ctx, normalizeReference(reference))
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}

	updated, err := s.bookings.UpdateStatus(ctx, current.Reference, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "booking_cancelled", updated, "")
	return updated, nil
}

// Validate reports whether the reference resolves to the given trip and has
// not been revoked. Every miss collapses into the same false: callers learn
// nothing about whether the trip or the reference exists.
func (s *BookingService) Validate(ctx context.Context, tripID int64, reference string) (bool, error) {
	reference = normalizeReference(reference)
	if reference == "" {
		return false, nil
	}

	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return false, nil
		}
		return false, err
	}
	if booking.Status == domain.BookingStatusCancelled {
		return false, nil
	}
	return booking.TripID == tripID, nil
}

func (s *BookingService) ConfirmedWithPhone(ctx context.Context, tripID int64) ([]domain.Booking, error) {
	return s.bookings.ConfirmedWithPhone(ctx, tripID)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, flightCode string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		Reference:  booking.Reference,
		TripID:     booking.TripID,
		FlightCode: flightCode,
		Passenger:  booking.PassengerName,
		Phone:      booking.PassengerPhone,
		Email:      booking.PassengerEmail,
		Status:     string(booking.Status),
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, booking.Reference, err)
	}
}

func normalizeReference(reference string) string {
	return strings.ToUpper(strings.TrimSpace(reference))
}

var _ BookingUseCase = (*BookingService)(nil)
