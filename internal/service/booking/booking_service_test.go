package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nasimair/flightops/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, reference, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ConfirmedWithPhone(ctx context.Context, tripID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) List(ctx context.Context) ([]domain.Trip, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ListByOrigin(ctx context.Context, fromCode string) ([]domain.Trip, error) {
	args := m.Called(ctx, fromCode)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ApplyDelay(ctx context.Context, id int64, minutes int, note string) (*domain.Trip, error) {
	args := m.Called(ctx, id, minutes, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ClaimDelayNotice(ctx context.Context, tripID int64, minutes int) (bool, error) {
	args := m.Called(ctx, tripID, minutes)
	return args.Bool(0), args.Error(1)
}

func (m *MockTripRepository) ReconcileStatuses(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func testTrip() *domain.Trip {
	return &domain.Trip{
		ID:         4,
		FlightCode: "NA101",
		FromCode:   "DOH",
		ToCode:     "LHR",
		DepartAt:   time.Now().Add(2 * time.Hour),
		ArriveAt:   time.Now().Add(9 * time.Hour),
		Status:     domain.TripStatusScheduled,
	}
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTrips := &MockTripRepository{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookings, mockTrips, mockProducer, WithBookingTopic("booking-events"))

	ctx := context.Background()
	mockTrips.On("GetByID", ctx, int64(4)).Return(testTrip(), nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{
		TripID:         4,
		PassengerName:  "Misan Rijal",
		PassengerEmail: "misan@example.com",
		PassengerPhone: "+13125550148",
		Seats:          2,
	})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Len(t, created.Reference, 10)
	assert.Equal(t, int64(4), created.TripID)
	assert.Equal(t, domain.BookingStatusPending, created.Status)
	assert.Equal(t, 2, created.Seats)

	mockTrips.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_DistinctReferences(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTrips := &MockTripRepository{}

	service := NewBookingService(mockBookings, mockTrips, nil)

	ctx := context.Background()
	mockTrips.On("GetByID", ctx, int64(4)).Return(testTrip(), nil)
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		created, err := service.CreateBooking(ctx, CreateBookingInput{TripID: 4, PassengerName: "P"})
		assert.NoError(t, err)
		assert.False(t, seen[created.Reference])
		seen[created.Reference] = true
	}
}

func TestBookingService_CreateBooking_RetriesOnReferenceCollision(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTrips := &MockTripRepository{}

	service := NewBookingService(mockBookings, mockTrips, nil)

	ctx := context.Background()
	mockTrips.On("GetByID", ctx, int64(4)).Return(testTrip(), nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(domain.ErrReferenceTaken).Twice()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TripID: 4, PassengerName: "P"})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	mockBookings.AssertNumberOfCalls(t, "Create", 3)
}

func TestBookingService_CreateBooking_TripMissing(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTrips := &MockTripRepository{}

	service := NewBookingService(mockBookings, mockTrips, nil)

	ctx := context.Background()
	mockTrips.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrTripNotFound).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TripID: 99, PassengerName: "P"})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, domain.ErrTripNotFound)
	mockBookings.AssertNotCalled(t, "Create")
}

func TestBookingService_CreateBooking_RequiresPassengerName(t *testing.T) {
	service := NewBookingService(&MockBookingRepository{}, &MockTripRepository{}, nil)

	created, err := service.CreateBooking(context.Background(), CreateBookingInput{TripID: 4})

	assert.Nil(t, created)
	assert.EqualError(t, err, "passenger name is required")
}

func TestBookingService_Validate(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		tripID    int64
		reference string
		booking   *domain.Booking
		lookupErr error
		expected  bool
	}{
		{
			name:      "valid confirmed booking",
			tripID:    4,
			reference: "ABC123XYZ9",
			booking:   &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusConfirmed},
			expected:  true,
		},
		{
			name:      "pending booking still validates",
			tripID:    4,
			reference: "ABC123XYZ9",
			booking:   &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusPending},
			expected:  true,
		},
		{
			name:      "reference for another trip",
			tripID:    4,
			reference: "ABC123XYZ9",
			booking:   &domain.Booking{TripID: 7, Reference: "ABC123XYZ9", Status: domain.BookingStatusConfirmed},
			expected:  false,
		},
		{
			name:      "cancelled booking is revoked",
			tripID:    4,
			reference: "ABC123XYZ9",
			booking:   &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusCancelled},
			expected:  false,
		},
		{
			name:      "unknown reference",
			tripID:    4,
			reference: "NOPE123456",
			lookupErr: domain.ErrBookingNotFound,
			expected:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockBookings := &MockBookingRepository{}
			service := NewBookingService(mockBookings, &MockTripRepository{}, nil)

			if tc.booking != nil {
				mockBookings.On("GetByReference", ctx, tc.reference).Return(tc.booking, nil).Once()
			} else {
				mockBookings.On("GetByReference", ctx, tc.reference).Return(nil, tc.lookupErr).Once()
			}

			ok, err := service.Validate(ctx, tc.tripID, tc.reference)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
		})
	}
}

func TestBookingService_Validate_EmptyReference(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := NewBookingService(mockBookings, &MockTripRepository{}, nil)

	ok, err := service.Validate(context.Background(), 4, "   ")

	assert.NoError(t, err)
	assert.False(t, ok)
	mockBookings.AssertNotCalled(t, "GetByReference")
}

func TestBookingService_Validate_NormalizesCase(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := NewBookingService(mockBookings, &MockTripRepository{}, nil)

	ctx := context.Background()
	stored := &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusConfirmed}
	mockBookings.On("GetByReference", ctx, "ABC123XYZ9").Return(stored, nil).Once()

	ok, err := service.Validate(ctx, 4, " abc123xyz9 ")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestBookingService_ConfirmBooking_Success(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := NewBookingService(mockBookings, &MockTripRepository{}, nil)

	ctx := context.Background()
	pending := &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusPending}
	confirmed := &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusConfirmed}

	mockBookings.On("GetByReference", ctx, "ABC123XYZ9").Return(pending, nil).Once()
	mockBookings.On("UpdateStatus", ctx, "ABC123XYZ9", domain.BookingStatusConfirmed).Return(confirmed, nil).Once()

	updated, err := service.ConfirmBooking(ctx, "ABC123XYZ9")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)
	mockBookings.AssertExpectations(t)
}

func TestBookingService_ConfirmBooking_NotPending(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := NewBookingService(mockBookings, &MockTripRepository{}, nil)

	ctx := context.Background()
	cancelled := &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusCancelled}
	mockBookings.On("GetByReference", ctx, "ABC123XYZ9").Return(cancelled, nil).Once()

	updated, err := service.ConfirmBooking(ctx, "ABC123XYZ9")

	assert.Nil(t, updated)
	assert.EqualError(t, err, "booking is not pending")
	mockBookings.AssertNotCalled(t, "UpdateStatus")
}

func TestBookingService_CancelBooking_AlreadyCancelled(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := NewBookingService(mockBookings, &MockTripRepository{}, nil)

	ctx := context.Background()
	cancelled := &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusCancelled}
	mockBookings.On("GetByReference", ctx, "ABC123XYZ9").Return(cancelled, nil).Once()

	updated, err := service.CancelBooking(ctx, "ABC123XYZ9")

	assert.NoError(t, err)
	assert.Equal(t, cancelled, updated)
	mockBookings.AssertNotCalled(t, "UpdateStatus")
}

func TestBookingService_CancelBooking_Success(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := NewBookingService(mockBookings, &MockTripRepository{}, mockProducer, WithBookingTopic("booking-events"))

	ctx := context.Background()
	confirmed := &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusConfirmed}
	cancelled := &domain.Booking{TripID: 4, Reference: "ABC123XYZ9", Status: domain.BookingStatusCancelled}

	mockBookings.On("GetByReference", ctx, "ABC123XYZ9").Return(confirmed, nil).Once()
	mockBookings.On("UpdateStatus", ctx, "ABC123XYZ9", domain.BookingStatusCancelled).Return(cancelled, nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", "ABC123XYZ9", mock.Anything).Return(nil).Once()

	updated, err := service.CancelBooking(ctx, "ABC123XYZ9")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, updated.Status)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_ConfirmedWithPhone(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	service := NewBookingService(mockBookings, &MockTripRepository{}, nil)

	ctx := context.Background()
	expected := []domain.Booking{
		{TripID: 4, Reference: "AAAA111122", PassengerPhone: "+13125550148", Status: domain.BookingStatusConfirmed},
	}
	mockBookings.On("ConfirmedWithPhone", ctx, int64(4)).Return(expected, nil).Once()

	bookings, err := service.ConfirmedWithPhone(ctx, 4)

	assert.NoError(t, err)
	assert.Equal(t, expected, bookings)
}

func TestBookingService_PublishFailureDoesNotFailBooking(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTrips := &MockTripRepository{}
	mockProducer := &MockProducer{}
	service := NewBookingService(mockBookings, mockTrips, mockProducer, WithBookingTopic("booking-events"))

	ctx := context.Background()
	mockTrips.On("GetByID", ctx, int64(4)).Return(testTrip(), nil).Once()
	mockBookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(errors.New("kafka down")).Once()

	created, err := service.CreateBooking(ctx, CreateBookingInput{TripID: 4, PassengerName: "P"})

	assert.NoError(t, err)
	assert.NotNil(t, created)
}
