package booking

import (
	"fmt"
	"math"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total cost in cents for renting over period.
	Calculate(period Period, dailyRateCents int64) (int64, error)
}

// DailyRatePricing charges the car's daily rate for every started day, with a
// one-day minimum.
type DailyRatePricing struct{}

// NewDailyRatePricing creates a new DailyRatePricing.
func NewDailyRatePricing() *DailyRatePricing {
	return &DailyRatePricing{}
}

// Calculate returns RentalDays(period) * dailyRateCents.
func (DailyRatePricing) Calculate(period Period, dailyRateCents int64) (int64, error) {
	if dailyRateCents <= 0 {
		return 0, fmt.Errorf("daily rate must be positive")
	}
	return RentalDays(period) * dailyRateCents, nil
}

// RentalDays is max(1, ceil(days between pickup and return)).
func RentalDays(period Period) int64 {
	days := int64(math.Ceil(period.Return.Sub(period.Pickup).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}
