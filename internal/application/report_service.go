package application

import (
	"context"
	"time"

	reportDomain "github.com/driveease/service-rental/internal/domain/report"
)

const topN = 10

// DashboardDTO summarises the business for the admin home page.
type DashboardDTO struct {
	EnabledCars       int64  `json:"enabled_cars"`
	ActiveBookings    int64  `json:"active_bookings"`
	MonthRevenueCents int64  `json:"month_revenue_cents"`
	TotalCustomers    int64  `json:"total_customers"`
	Currency          string `json:"currency"`
	Month             string `json:"month"`
}

// AdvancedReportDTO holds the revenue series and the rankings.
type AdvancedReportDTO struct {
	MonthlyRevenue []reportDomain.MonthlyRevenue `json:"monthly_revenue"`
	TopCars        []reportDomain.CarPopularity  `json:"top_cars"`
	TopCustomers   []reportDomain.CustomerSpend  `json:"top_customers"`
	Currency       string                        `json:"currency"`
}

// ReportService answers the read-only reporting queries.
type ReportService struct {
	reports reportDomain.ReportRepository
	policy  Policy
	now     clock
}

// NewReportService creates a new ReportService.
func NewReportService(reports reportDomain.ReportRepository, policy Policy) *ReportService {
	return &ReportService{reports: reports, policy: policy, now: time.Now}
}

// Dashboard returns headline counts and the current month's net revenue.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardDTO, error) {
	now := s.now().In(s.policy.location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	cars, err := s.reports.CountEnabledCars(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.reports.CountActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.reports.RevenueBetween(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	customers, err := s.reports.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardDTO{
		EnabledCars:       cars,
		ActiveBookings:    active,
		MonthRevenueCents: revenue,
		TotalCustomers:    customers,
		Currency:          s.policy.Currency,
		Month:             reportDomain.MonthLabel(now.Year(), int(now.Month())),
	}, nil
}

// Advanced returns the monthly revenue series and the top cars and customers.
func (s *ReportService) Advanced(ctx context.Context) (*AdvancedReportDTO, error) {
	monthly, err := s.reports.MonthlyRevenue(ctx)
	if err != nil {
		return nil, err
	}
	cars, err := s.reports.TopCars(ctx, topN)
	if err != nil {
		return nil, err
	}
	customers, err := s.reports.TopCustomers(ctx, topN)
	if err != nil {
		return nil, err
	}

	return &AdvancedReportDTO{
		MonthlyRevenue: monthly,
		TopCars:        cars,
		TopCustomers:   customers,
		Currency:       s.policy.Currency,
	}, nil
}
