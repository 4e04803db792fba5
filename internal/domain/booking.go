package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking ties a reference to exactly one trip. Rows are never deleted:
// cancellation flips the status, the reference->trip mapping stays forever.
type Booking struct {
	ID             int64
	TripID         int64
	Reference      string
	PassengerName  string
	PassengerEmail string
	PassengerPhone string
	Seats          int
	Status         BookingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
