package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/repository"
)

type Outcome string

const (
	OutcomeAllowed         Outcome = "allowed"
	OutcomeUnauthorized    Outcome = "unauthorized"
	OutcomeNotYetAvailable Outcome = "not_yet_available"
)

// Decision is the single gate on live trip data. Unauthorized and
// NotYetAvailable are outcomes, not errors: a caller holding a valid
// reference that is merely early gets the opening time back so it can show
// a countdown instead of a failure.
type Decision struct {
	Outcome  Outcome
	OpensAt  time.Time
	Snapshot *Snapshot
}

type Registry interface {
	Validate(ctx context.Context, tripID int64, reference string) (bool, error)
}

type Cache interface {
	GetTripSnapshot(ctx context.Context, tripID int64) ([]byte, error)
	SetTripSnapshot(ctx context.Context, tripID int64, payload []byte) error
}

type TrackingService struct {
	trips    repository.TripRepository
	registry Registry
	cache    Cache
	now      func() time.Time
}

type TrackingServiceOption func(*TrackingService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) TrackingServiceOption {
	return func(s *TrackingService) {
		s.now = now
	}
}

func NewTrackingService(trips repository.TripRepository, registry Registry, cache Cache, opts ...TrackingServiceOption) *TrackingService {
	service := &TrackingService{
		trips:    trips,
		registry: registry,
		cache:    cache,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Track decides whether live data for the trip may be released to the holder
// of the reference. The credential check runs first and wins: a missing trip
// and a bad reference are indistinguishable to the caller.
func (s *TrackingService) Track(ctx context.Context, tripID int64, reference string) (*Decision, error) {
	ok, err := s.registry.Validate(ctx, tripID, reference)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Decision{Outcome: OutcomeUnauthorized}, nil
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			return &Decision{Outcome: OutcomeUnauthorized}, nil
		}
		return nil, err
	}

	now := s.now()
	if !trip.TrackingOpen(now) {
		return &Decision{Outcome: OutcomeNotYetAvailable, OpensAt: trip.TrackingOpensAt()}, nil
	}

	return &Decision{Outcome: OutcomeAllowed, Snapshot: s.snapshot(ctx, trip, now)}, nil
}

// Network builds snapshots for all trips departing a hub. This feeds the
// public route map, which shows positions without booking-level detail.
func (s *TrackingService) Network(ctx context.Context, fromCode string) ([]Snapshot, error) {
	trips, err := s.trips.ListByOrigin(ctx, fromCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	snapshots := make([]Snapshot, 0, len(trips))
	for i := range trips {
		snapshots = append(snapshots, *buildSnapshot(&trips[i], now))
	}
	return snapshots, nil
}

func (s *TrackingService) snapshot(ctx context.Context, trip *domain.Trip, now time.Time) *Snapshot {
	if s.cache != nil {
		if data, err := s.cache.GetTripSnapshot(ctx, trip.ID); err == nil && data != nil {
			var cached Snapshot
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached
			}
		}
	}

	snapshot := buildSnapshot(trip, now)
	if s.cache != nil {
		if payload, err := json.Marshal(snapshot); err == nil {
			_ = s.cache.SetTripSnapshot(ctx, trip.ID, payload)
		}
	}
	return snapshot
}
