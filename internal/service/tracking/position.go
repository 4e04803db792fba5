package tracking

import (
	"math"
	"time"

	"github.com/nasimair/flightops/internal/domain"
)

// Snapshot is the live view released once the tracking gate allows it.
// Positions are synthesized from the schedule and route endpoints; there is
// no real telemetry feed behind this system.
type Snapshot struct {
	TripID            int64   `json:"trip_id"`
	FlightCode        string  `json:"flight_code"`
	Status            string  `json:"status"`
	FromCode          string  `json:"from_code"`
	ToCode            string  `json:"to_code"`
	FromName          string  `json:"from_name"`
	ToName            string  `json:"to_name"`
	StartLatitude     float64 `json:"start_latitude"`
	StartLongitude    float64 `json:"start_longitude"`
	EndLatitude       float64 `json:"end_latitude"`
	EndLongitude      float64 `json:"end_longitude"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	DepartAt          string  `json:"depart_at"`
	ArriveAt          string  `json:"arrive_at"`
	ScheduledDepartAt string  `json:"scheduled_depart_at"`
	ScheduledArriveAt string  `json:"scheduled_arrive_at"`
	DelayMinutes      int     `json:"delay_minutes"`
	DelayNote         string  `json:"delay_note"`
	AltitudeFt        int     `json:"altitude_ft"`
	GroundSpeedKts    int     `json:"ground_speed_kts"`
	ProgressPercent   int     `json:"progress_percent"`
	Mode              string  `json:"mode"`
	UpdatedAt         string  `json:"updated_at"`
}

var airportCoords = map[string][2]float64{
	"MSP": {44.8848, -93.2223},
	"ORD": {41.9742, -87.9073},
	"JFK": {40.6413, -73.7781},
	"LHR": {51.4700, -0.4543},
	"FRA": {50.0379, 8.5622},
	"MAD": {40.4893, -3.5676},
	"FCO": {41.8003, 12.2389},
	"IST": {41.2753, 28.7519},
	"DOH": {25.2731, 51.6081},
	"DXB": {25.2532, 55.3657},
	"JED": {21.6702, 39.1525},
	"CAI": {30.1219, 31.4056},
	"DEL": {28.5562, 77.1000},
	"BOM": {19.0896, 72.8656},
	"BKK": {13.6900, 100.7501},
	"CDG": {49.0097, 2.5479},
	"SIN": {1.3644, 103.9915},
	"HKG": {22.3080, 113.9185},
	"NRT": {35.7720, 140.3929},
	"ICN": {37.4602, 126.4407},
	"SYD": {-33.9399, 151.1753},
	"JNB": {-26.1367, 28.2410},
	"GRU": {-23.4356, -46.4731},
}

// coordsForCode returns known airport coordinates, or a deterministic
// fallback derived from the code so unknown airports still render stably.
func coordsForCode(code string) (float64, float64) {
	if c, ok := airportCoords[code]; ok {
		return c[0], c[1]
	}

	seed := 0
	for _, ch := range code {
		seed += int(ch)
	}
	lat := 20.0 + float64(seed%45)
	lon := -120.0 + float64(seed%70)
	return round4(lat), round4(lon)
}

func buildSnapshot(trip *domain.Trip, now time.Time) *Snapshot {
	startLat, startLon := coordsForCode(trip.FromCode)
	endLat, endLon := coordsForCode(trip.ToCode)

	progress := float64(trip.ProgressPercent(now)) / 100.0
	status := trip.LiveStatus(now)

	lat := startLat + (endLat-startLat)*progress
	lon := startLon + (endLon-startLon)*progress

	// Soft arc during flight so movement looks natural on the map.
	if status == "In Air" {
		lat += math.Sin(progress*math.Pi) * 1.5
	}

	var altitudeFt, groundSpeedKts int
	if status == "In Air" {
		altitudeFt = int(38000 * math.Sin(progress*math.Pi))
		groundSpeedKts = 460 + int(40*math.Sin(progress*math.Pi))
	}

	return &Snapshot{
		TripID:            trip.ID,
		FlightCode:        trip.FlightCode,
		Status:            status,
		FromCode:          trip.FromCode,
		ToCode:            trip.ToCode,
		FromName:          trip.FromName,
		ToName:            trip.ToName,
		StartLatitude:     round5(startLat),
		StartLongitude:    round5(startLon),
		EndLatitude:       round5(endLat),
		EndLongitude:      round5(endLon),
		Latitude:          round5(lat),
		Longitude:         round5(lon),
		DepartAt:          trip.EstimatedDepartAt().Format(time.RFC3339),
		ArriveAt:          trip.EstimatedArriveAt().Format(time.RFC3339),
		ScheduledDepartAt: trip.DepartAt.Format(time.RFC3339),
		ScheduledArriveAt: trip.ArriveAt.Format(time.RFC3339),
		DelayMinutes:      trip.DelayMinutes,
		DelayNote:         trip.DelayNote,
		AltitudeFt:        altitudeFt,
		GroundSpeedKts:    groundSpeedKts,
		ProgressPercent:   trip.ProgressPercent(now),
		Mode:              "simulated_live",
		UpdatedAt:         now.Format(time.RFC3339),
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
