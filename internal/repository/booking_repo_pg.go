package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nasimair/flightops/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error)
	ConfirmedWithPhone(ctx context.Context, tripID int64) ([]domain.Booking, error)
}

const bookingColumns = `id, trip_id, reference, passenger_name, passenger_email, passenger_phone, seats, status, created_at, updated_at`

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create inserts the booking. A collision on the reference unique constraint
// surfaces as ErrReferenceTaken so the caller can regenerate and retry; a
// foreign key violation on trip_id means the trip vanished between the
// caller's existence check and the insert.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (trip_id, reference, passenger_name, passenger_email, passenger_phone, seats, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		booking.TripID, booking.Reference, booking.PassengerName, booking.PassengerEmail, booking.PassengerPhone, booking.Seats, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return domain.ErrReferenceTaken
			case pgForeignKeyViolation:
				return domain.ErrTripNotFound
			}
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.TripID, &b.Reference, &b.PassengerName, &b.PassengerEmail, &b.PassengerPhone, &b.Seats, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE reference=$2 RETURNING `+bookingColumns, status, reference)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.TripID, &b.Reference, &b.PassengerName, &b.PassengerEmail, &b.PassengerPhone, &b.Seats, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) ConfirmedWithPhone(ctx context.Context, tripID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE trip_id=$1 AND status=$2 AND passenger_phone <> ''`, tripID, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.TripID, &b.Reference, &b.PassengerName, &b.PassengerEmail, &b.PassengerPhone, &b.Seats, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
