package trips

import (
	"context"

	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/repository"
)

type TripUseCase interface {
	List(ctx context.Context) ([]domain.Trip, error)
	ListByOrigin(ctx context.Context, fromCode string) ([]domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
}

type Cache interface {
	GetTrips(ctx context.Context) ([]domain.Trip, error)
	SetTrips(ctx context.Context, trips []domain.Trip) error
}

type TripService struct {
	repo  repository.TripRepository
	cache Cache
}

func NewTripService(repo repository.TripRepository, cache Cache) *TripService {
	return &TripService{repo: repo, cache: cache}
}

func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTrips(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTrips(ctx, trips)
	}
	return trips, nil
}

func (s *TripService) ListByOrigin(ctx context.Context, fromCode string) ([]domain.Trip, error) {
	return s.repo.ListByOrigin(ctx, fromCode)
}

func (s *TripService) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return s.repo.GetByID(ctx, id)
}

var _ TripUseCase = (*TripService)(nil)
