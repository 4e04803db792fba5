package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nasimair/flightops/internal/domain"
)

type TripRepository interface {
	List(ctx context.Context) ([]domain.Trip, error)
	ListByOrigin(ctx context.Context, fromCode string) ([]domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	ApplyDelay(ctx context.Context, id int64, minutes int, note string) (*domain.Trip, error)
	ClaimDelayNotice(ctx context.Context, tripID int64, minutes int) (bool, error)
	ReconcileStatuses(ctx context.Context, now time.Time) (int64, error)
}

const tripColumns = `id, flight_code, from_code, to_code, from_name, to_name, depart_at, arrive_at, delay_minutes, delay_note, status, created_at, updated_at`

type PGTripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) TripRepository {
	return &PGTripRepository{db: db}
}

func scanTrip(row pgx.Row, t *domain.Trip) error {
	return row.Scan(&t.ID, &t.FlightCode, &t.FromCode, &t.ToCode, &t.FromName, &t.ToName, &t.DepartAt, &t.ArriveAt, &t.DelayMinutes, &t.DelayNote, &t.Status, &t.CreatedAt, &t.UpdatedAt)
}

func (r *PGTripRepository) List(ctx context.Context) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY depart_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		var t domain.Trip
		if err := scanTrip(rows, &t); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func (r *PGTripRepository) ListByOrigin(ctx context.Context, fromCode string) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tripColumns+` FROM trips WHERE from_code=$1 ORDER BY depart_at`, fromCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		var t domain.Trip
		if err := scanTrip(rows, &t); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func (r *PGTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=$1`, id)
	var t domain.Trip
	if err := scanTrip(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ApplyDelay updates the delay fields and status in a single statement, so
// concurrent updates to the same trip serialize on the row (last write wins).
// An operational status (IN_PROGRESS, COMPLETED, CANCELLED) is never
// overwritten; clearing a delay flips DELAYED back to SCHEDULED.
func (r *PGTripRepository) ApplyDelay(ctx context.Context, id int64, minutes int, note string) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE trips SET
			delay_minutes = $2,
			delay_note = $3,
			status = CASE
				WHEN status IN ('IN_PROGRESS', 'COMPLETED', 'CANCELLED') THEN status
				WHEN $2 > 0 THEN 'DELAYED'
				WHEN status = 'DELAYED' THEN 'SCHEDULED'
				ELSE status
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+tripColumns, id, minutes, note)

	var t domain.Trip
	if err := scanTrip(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ClaimDelayNotice records that bookings on the trip were notified of this
// delay value. The insert acts as a compare-and-set: the first caller for a
// (trip, minutes) pair gets true, every later caller gets false.
func (r *PGTripRepository) ClaimDelayNotice(ctx context.Context, tripID int64, minutes int) (bool, error) {
	cmd, err := r.db.Exec(ctx, `INSERT INTO delay_notices (trip_id, delay_minutes) VALUES ($1, $2) ON CONFLICT DO NOTHING`, tripID, minutes)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// ReconcileStatuses advances trip statuses from the schedule: past trips
// become COMPLETED, departed ones IN_PROGRESS, trips inside the boarding
// window BOARDING. Returns the number of rows touched.
func (r *PGTripRepository) ReconcileStatuses(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var touched int64

	cmd, err := tx.Exec(ctx, `
		UPDATE trips SET status='COMPLETED', updated_at=now()
		WHERE status NOT IN ('COMPLETED', 'CANCELLED')
		AND arrive_at + make_interval(mins => delay_minutes) <= $1`, now)
	if err != nil {
		return 0, err
	}
	touched += cmd.RowsAffected()

	cmd, err = tx.Exec(ctx, `
		UPDATE trips SET status='IN_PROGRESS', updated_at=now()
		WHERE status NOT IN ('IN_PROGRESS', 'COMPLETED', 'CANCELLED')
		AND depart_at + make_interval(mins => delay_minutes) <= $1
		AND arrive_at + make_interval(mins => delay_minutes) > $1`, now)
	if err != nil {
		return 0, err
	}
	touched += cmd.RowsAffected()

	cmd, err = tx.Exec(ctx, `
		UPDATE trips SET status='BOARDING', updated_at=now()
		WHERE status = 'SCHEDULED'
		AND depart_at + make_interval(mins => delay_minutes) - interval '45 minutes' <= $1
		AND depart_at + make_interval(mins => delay_minutes) > $1`, now)
	if err != nil {
		return 0, err
	}
	touched += cmd.RowsAffected()

	return touched, tx.Commit(ctx)
}

var _ TripRepository = (*PGTripRepository)(nil)
