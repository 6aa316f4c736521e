package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/common/database"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	reportDomain "github.com/driveease/service-rental/internal/domain/report"
	"gorm.io/gorm"
)

// GormReportRepository answers reporting queries with SQL aggregates.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository.
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// MonthlyRevenue returns the net of completed payments per calendar month, oldest first.
func (r *GormReportRepository) MonthlyRevenue(ctx context.Context) ([]reportDomain.MonthlyRevenue, error) {
	type row struct {
		Year   int
		Month  int
		Amount int64
	}
	var rows []row
	if err := database.Conn(ctx, r.db).Model(&PaymentModel{}).
		Select("EXTRACT(YEAR FROM paid_at)::int AS year, EXTRACT(MONTH FROM paid_at)::int AS month, SUM(amount_cents) AS amount").
		Where("status = ?", string(paymentDomain.StatusCompleted)).
		Group("year, month").
		Order("year, month").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly revenue: %w", err)
	}

	out := make([]reportDomain.MonthlyRevenue, len(rows))
	for i, rw := range rows {
		out[i] = reportDomain.MonthlyRevenue{
			Year:        rw.Year,
			Month:       rw.Month,
			Label:       reportDomain.MonthLabel(rw.Year, rw.Month),
			AmountCents: rw.Amount,
		}
	}
	return out, nil
}

// RevenueBetween returns the net of completed payments settled in [from, to).
func (r *GormReportRepository) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	if err := database.Conn(ctx, r.db).Model(&PaymentModel{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("status = ? AND paid_at >= ? AND paid_at < ?", string(paymentDomain.StatusCompleted), from, to).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

// TopCars returns the cars with the most paid bookings.
func (r *GormReportRepository) TopCars(ctx context.Context, limit int) ([]reportDomain.CarPopularity, error) {
	var rows []reportDomain.CarPopularity
	if err := database.Conn(ctx, r.db).Table("bookings b").
		Select("c.id AS car_id, c.name, c.model, COUNT(b.id) AS booking_count").
		Joins("JOIN cars c ON c.id = b.car_id").
		Where("b.status = ?", string(bookingDomain.StatusPaid)).
		Group("c.id, c.name, c.model").
		Order("booking_count DESC, c.name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to rank cars: %w", err)
	}
	return rows, nil
}

// TopCustomers returns the customers with the highest paid booking totals.
func (r *GormReportRepository) TopCustomers(ctx context.Context, limit int) ([]reportDomain.CustomerSpend, error) {
	var rows []reportDomain.CustomerSpend
	if err := database.Conn(ctx, r.db).Table("bookings b").
		Select("cu.id AS customer_id, cu.name, cu.username, SUM(b.total_cost_cents) AS total_spent_cents").
		Joins("JOIN customers cu ON cu.id = b.customer_id").
		Where("b.status = ?", string(bookingDomain.StatusPaid)).
		Group("cu.id, cu.name, cu.username").
		Order("total_spent_cents DESC, cu.name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to rank customers: %w", err)
	}
	return rows, nil
}

// CountEnabledCars counts cars switched on for rental.
func (r *GormReportRepository) CountEnabledCars(ctx context.Context) (int64, error) {
	return countRows(database.Conn(ctx, r.db).Model(&CarModel{}).Where("is_available = ?", true), "cars")
}

// CountActiveBookings counts pending and paid bookings.
func (r *GormReportRepository) CountActiveBookings(ctx context.Context) (int64, error) {
	active := []string{string(bookingDomain.StatusPending), string(bookingDomain.StatusPaid)}
	return countRows(database.Conn(ctx, r.db).Model(&BookingModel{}).Where("status IN ?", active), "bookings")
}

// CountCustomers counts registered customers.
func (r *GormReportRepository) CountCustomers(ctx context.Context) (int64, error) {
	return countRows(database.Conn(ctx, r.db).Model(&CustomerModel{}), "customers")
}

func countRows(q *gorm.DB, what string) (int64, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}
