package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MonthlyRevenue is the net of all payments settled in one calendar month.
type MonthlyRevenue struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amount_cents"`
}

// CarPopularity counts paid bookings of one car.
type CarPopularity struct {
	CarID        uuid.UUID `json:"car_id"`
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	BookingCount int64     `json:"booking_count"`
}

// CustomerSpend sums the paid bookings of one customer.
type CustomerSpend struct {
	CustomerID      uuid.UUID `json:"customer_id"`
	Name            string    `json:"name"`
	Username        string    `json:"username"`
	TotalSpentCents int64     `json:"total_spent_cents"`
}

// ReportRepository answers read-only aggregate queries.
type ReportRepository interface {
	MonthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (int64, error)
	TopCars(ctx context.Context, limit int) ([]CarPopularity, error)
	TopCustomers(ctx context.Context, limit int) ([]CustomerSpend, error)
	CountEnabledCars(ctx context.Context) (int64, error)
	CountActiveBookings(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
}

// MonthLabel formats a year and month as "Jan 2025".
func MonthLabel(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}
