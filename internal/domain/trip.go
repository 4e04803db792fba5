package domain

import "time"

type TripStatus string

const (
	TripStatusScheduled  TripStatus = "SCHEDULED"
	TripStatusBoarding   TripStatus = "BOARDING"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusDelayed    TripStatus = "DELAYED"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// TrackingUnlockWindow is how long before estimated departure live tracking
// opens for passengers holding a valid booking reference.
const TrackingUnlockWindow = 45 * time.Minute

// StandardDelayMinutes is the delay applied by the bulk operator action.
const StandardDelayMinutes = 30

type Trip struct {
	ID           int64
	FlightCode   string
	FromCode     string
	ToCode       string
	FromName     string
	ToName       string
	DepartAt     time.Time
	ArriveAt     time.Time
	DelayMinutes int
	DelayNote    string
	Status       TripStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EstimatedDepartAt is the scheduled departure shifted by any recorded delay.
func (t *Trip) EstimatedDepartAt() time.Time {
	return t.DepartAt.Add(time.Duration(t.DelayMinutes) * time.Minute)
}

func (t *Trip) EstimatedArriveAt() time.Time {
	return t.ArriveAt.Add(time.Duration(t.DelayMinutes) * time.Minute)
}

// TrackingOpensAt is computed from the estimated departure, so a delay pushes
// the unlock moment later.
func (t *Trip) TrackingOpensAt() time.Time {
	return t.EstimatedDepartAt().Add(-TrackingUnlockWindow)
}

func (t *Trip) TrackingOpen(now time.Time) bool {
	if t.Status == TripStatusInProgress {
		return true
	}
	return !now.Before(t.TrackingOpensAt())
}

// LiveStatus infers a display status from schedule and current time.
func (t *Trip) LiveStatus(now time.Time) string {
	departAt := t.EstimatedDepartAt()
	arriveAt := t.EstimatedArriveAt()
	boardingOpen := departAt.Add(-TrackingUnlockWindow)

	if t.DelayMinutes > 0 && !now.Before(t.DepartAt) && now.Before(departAt) {
		return "Delayed"
	}
	if now.Before(boardingOpen) {
		return "Scheduled"
	}
	if now.Before(departAt) {
		return "Boarding"
	}
	if now.Before(arriveAt) {
		return "In Air"
	}
	return "Arrived"
}

// ProgressPercent estimates trip progress from schedule only.
func (t *Trip) ProgressPercent(now time.Time) int {
	departAt := t.EstimatedDepartAt()
	arriveAt := t.EstimatedArriveAt()
	if !now.After(departAt) {
		return 0
	}
	if !now.Before(arriveAt) {
		return 100
	}

	total := arriveAt.Sub(departAt).Seconds()
	elapsed := now.Sub(departAt).Seconds()
	if total <= 0 {
		return 100
	}
	return int(elapsed / total * 100)
}
