package application

import (
	"time"

	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	feedbackDomain "github.com/driveease/service-rental/internal/domain/feedback"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/google/uuid"
)

// CarDTO is the response representation of a car.
type CarDTO struct {
	ID             uuid.UUID               `json:"id"`
	Spec           carDomain.Specification `json:"spec"`
	DailyRateCents int64                   `json:"daily_rate_cents"`
	Currency       string                  `json:"currency"`
	IsAvailable    bool                    `json:"is_available"`
	ImageURL       string                  `json:"image_url,omitempty"`
	LogoURL        string                  `json:"logo_url,omitempty"`
	Version        int64                   `json:"version"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                      uuid.UUID  `json:"id"`
	BookingNumber           string     `json:"booking_number"`
	CustomerID              uuid.UUID  `json:"customer_id"`
	CarID                   uuid.UUID  `json:"car_id"`
	Status                  string     `json:"status"`
	PickupDate              time.Time  `json:"pickup_date"`
	ReturnDate              time.Time  `json:"return_date"`
	RentalDays              int64      `json:"rental_days"`
	DailyRateCents          int64      `json:"daily_rate_cents"`
	TotalCostCents          int64      `json:"total_cost_cents"`
	Currency                string     `json:"currency"`
	PayAtDesk               bool       `json:"pay_at_desk"`
	PaidAt                  *time.Time `json:"paid_at,omitempty"`
	CancellationRequestedAt *time.Time `json:"cancellation_requested_at,omitempty"`
	CancelledAt             *time.Time `json:"cancelled_at,omitempty"`
	CancelNote              string     `json:"cancel_note,omitempty"`
	Version                 int64      `json:"version"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// PaymentDTO is the response representation of a ledger entry.
type PaymentDTO struct {
	ID            uuid.UUID `json:"id"`
	BookingID     uuid.UUID `json:"booking_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}

// CustomerDTO is the response representation of a customer. Secrets are never exposed.
type CustomerDTO struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	NIC           string    `json:"nic"`
	LicenceNumber string    `json:"licence_number"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// FeedbackDTO is the response representation of feedback.
type FeedbackDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	CarID      uuid.UUID `json:"car_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCarDTO(c *carDomain.Car) CarDTO {
	return CarDTO{
		ID:             c.ID(),
		Spec:           c.Spec(),
		DailyRateCents: c.DailyRateCents(),
		Currency:       c.Currency(),
		IsAvailable:    c.IsAvailable(),
		ImageURL:       c.ImageURL(),
		LogoURL:        c.LogoURL(),
		Version:        c.Version(),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                      bk.ID(),
		BookingNumber:           bk.BookingNumber(),
		CustomerID:              bk.CustomerID(),
		CarID:                   bk.CarID(),
		Status:                  string(bk.Status()),
		PickupDate:              bk.Period().Pickup,
		ReturnDate:              bk.Period().Return,
		RentalDays:              bookingDomain.RentalDays(bk.Period()),
		DailyRateCents:          bk.DailyRateCents(),
		TotalCostCents:          bk.TotalCostCents(),
		Currency:                bk.Currency(),
		PayAtDesk:               bk.PayAtDesk(),
		PaidAt:                  bk.PaidAt(),
		CancellationRequestedAt: bk.CancellationRequestedAt(),
		CancelledAt:             bk.CancelledAt(),
		CancelNote:              bk.CancelNote(),
		Version:                 bk.Version(),
		CreatedAt:               bk.CreatedAt(),
		UpdatedAt:               bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toPaymentDTO(p *paymentDomain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID(),
		BookingID:     p.BookingID(),
		AmountCents:   p.AmountCents(),
		Currency:      p.Currency(),
		Method:        string(p.Method()),
		Status:        string(p.Status()),
		TransactionID: p.TransactionID(),
		PaidAt:        p.PaidAt(),
	}
}

func toPaymentDTOs(payments []*paymentDomain.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

func toCustomerDTO(c *customerDomain.Customer) CustomerDTO {
	profile := c.Profile()
	return CustomerDTO{
		ID:            c.ID(),
		Username:      c.Username(),
		Name:          profile.Name,
		Email:         profile.Email,
		Phone:         profile.Phone,
		Address:       profile.Address,
		NIC:           profile.NIC,
		LicenceNumber: profile.LicenceNumber,
		EmailVerified: c.EmailVerified(),
		CreatedAt:     c.CreatedAt(),
	}
}

func toFeedbackDTOs(items []*feedbackDomain.Feedback) []FeedbackDTO {
	dtos := make([]FeedbackDTO, len(items))
	for i, f := range items {
		dtos[i] = FeedbackDTO{
			ID:         f.ID(),
			BookingID:  f.BookingID(),
			CustomerID: f.CustomerID(),
			CarID:      f.CarID(),
			Rating:     f.Rating(),
			Comment:    f.Comment(),
			CreatedAt:  f.CreatedAt(),
		}
	}
	return dtos
}
