package rental

import (
	"fmt"
	"time"
)

const (
	// HourlyRate is charged per started hour.
	HourlyRate = 20
	// MinimumCost is charged for any rental, including ones under an hour.
	MinimumCost = 20
	// Currency prefixes formatted costs.
	Currency = "₱"
)

// ActiveRental is a bike rental in progress.
type ActiveRental struct {
	ID           string    `json:"id,omitempty"`
	BikeID       string    `json:"bikeId"`
	BikeName     string    `json:"bikeName,omitempty"`
	StartTime    time.Time `json:"startTime"`
	StartStation string    `json:"startStation,omitempty"`
	StationID    string    `json:"stationId,omitempty"`
	UserID       string    `json:"userId,omitempty"`
	CurrentCost  int       `json:"currentCost"`
}

// Validate checks the fields the timer needs.
func (r ActiveRental) Validate() error {
	if r.BikeID == "" {
		return ErrMissingBikeID
	}
	if r.StartTime.IsZero() {
		return ErrMissingStartTime
	}
	return nil
}

// Elapsed returns how long the rental has been running at now. Never negative.
func (r ActiveRental) Elapsed(now time.Time) time.Duration {
	return max(now.Sub(r.StartTime), 0)
}

// Cost returns the price of a rental of length d: HourlyRate per started hour
// of whole minutes, never less than MinimumCost.
func Cost(d time.Duration) int {
	minutes := int(max(d, 0) / time.Minute)
	hours := (minutes + 59) / 60
	return max(MinimumCost, hours*HourlyRate)
}

// FormatDuration renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	total := int(max(d, 0) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// FormatCost renders a cost with the currency symbol.
func FormatCost(cost int) string {
	return fmt.Sprintf("%s%d", Currency, cost)
}
