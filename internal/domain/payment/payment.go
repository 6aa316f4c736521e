package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/google/uuid"
)

// Method is how money moved.
type Method string

const (
	MethodCard                Method = "card"
	MethodCash                Method = "cash"
	MethodAdminApprovedRefund Method = "admin_approved_refund"
	MethodDirectRefund        Method = "direct_refund"
)

// IsValid returns true if the method is recognized.
func (m Method) IsValid() bool {
	switch m {
	case MethodCard, MethodCash, MethodAdminApprovedRefund, MethodDirectRefund:
		return true
	}
	return false
}

// IsRefund returns true for methods that return money to the customer.
func (m Method) IsRefund() bool {
	return m == MethodAdminApprovedRefund || m == MethodDirectRefund
}

// Status is the settlement state of a payment row.
type Status string

const StatusCompleted Status = "completed"

const txnSuffixChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Payment is an immutable ledger entry against a booking. Charges are positive
// and refunds are negative.
type Payment struct {
	id            uuid.UUID
	bookingID     uuid.UUID
	amountCents   int64
	currency      string
	method        Method
	status        Status
	transactionID string
	paidAt        time.Time
	createdAt     time.Time
}

// NewCharge records money received for a booking.
func NewCharge(bookingID uuid.UUID, amountCents int64, currency string, method Method, transactionID string, now time.Time) (*Payment, error) {
	if amountCents <= 0 {
		return nil, domain.NewValidationError("charge amount must be positive")
	}
	if method.IsRefund() || !method.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid charge method: %s", method))
	}
	return newPayment(bookingID, amountCents, currency, method, transactionID, now)
}

// NewRefund records money returned for a booking. amountCents is the positive
// sum refunded; the stored amount is its negation.
func NewRefund(bookingID uuid.UUID, amountCents int64, currency string, method Method, transactionID string, now time.Time) (*Payment, error) {
	if amountCents <= 0 {
		return nil, domain.NewValidationError("refund amount must be positive")
	}
	if !method.IsRefund() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid refund method: %s", method))
	}
	return newPayment(bookingID, -amountCents, currency, method, transactionID, now)
}

func newPayment(bookingID uuid.UUID, amountCents int64, currency string, method Method, transactionID string, now time.Time) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if transactionID == "" {
		return nil, domain.NewValidationError("transaction ID is required")
	}
	ts := now.UTC()
	return &Payment{
		id:            uuid.New(),
		bookingID:     bookingID,
		amountCents:   amountCents,
		currency:      currency,
		method:        method,
		status:        StatusCompleted,
		transactionID: transactionID,
		paidAt:        ts,
		createdAt:     ts,
	}, nil
}

// Reconstruct rebuilds a Payment from persistence.
func Reconstruct(id, bookingID uuid.UUID, amountCents int64, currency string, method Method, status Status, transactionID string, paidAt, createdAt time.Time) *Payment {
	return &Payment{
		id:            id,
		bookingID:     bookingID,
		amountCents:   amountCents,
		currency:      currency,
		method:        method,
		status:        status,
		transactionID: transactionID,
		paidAt:        paidAt,
		createdAt:     createdAt,
	}
}

// Getters.
func (p *Payment) ID() uuid.UUID          { return p.id }
func (p *Payment) BookingID() uuid.UUID   { return p.bookingID }
func (p *Payment) AmountCents() int64     { return p.amountCents }
func (p *Payment) Currency() string       { return p.currency }
func (p *Payment) Method() Method         { return p.method }
func (p *Payment) Status() Status         { return p.status }
func (p *Payment) TransactionID() string  { return p.transactionID }
func (p *Payment) PaidAt() time.Time      { return p.paidAt }
func (p *Payment) CreatedAt() time.Time   { return p.createdAt }
func (p *Payment) IsRefund() bool         { return p.amountCents < 0 }

// GenerateTransactionID returns "{prefix}-{yyyyMMddHHmmss}{6 random chars}".
func GenerateTransactionID(prefix string, now time.Time) (string, error) {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(txnSuffixChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate transaction ID: %w", err)
		}
		suffix[i] = txnSuffixChars[n.Int64()]
	}
	return fmt.Sprintf("%s-%s%s", prefix, now.UTC().Format("20060102150405"), suffix), nil
}
