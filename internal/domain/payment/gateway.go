package payment

import (
	"context"
	"strings"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/driveease/service-rental/internal/common/validation"
)

// Card is the card data submitted for an online payment. It is never stored.
type Card struct {
	HolderName string
	Number     string
	Expiry     string
	CVC        string
}

// Validate checks the card fields' formats.
func (c Card) Validate() error {
	if strings.TrimSpace(c.HolderName) == "" {
		return domain.NewValidationError("card holder name is required")
	}
	if !validation.ValidCardNumber(c.Number) {
		return domain.NewValidationError("invalid card number")
	}
	if !validation.ValidCardExpiry(c.Expiry) {
		return domain.NewValidationError("invalid expiry date, use MM/YY")
	}
	if !validation.ValidCVC(c.CVC) {
		return domain.NewValidationError("invalid CVC")
	}
	return nil
}

// Last4 returns the last four digits for display and logs.
func (c Card) Last4() string {
	n := validation.NormalizeCardNumber(c.Number)
	if len(n) < 4 {
		return n
	}
	return n[len(n)-4:]
}

// CardGateway authorises a card charge.
type CardGateway interface {
	Charge(ctx context.Context, card Card, amountCents int64, currency string) error
}

// SimulatedGateway approves every valid card except those whose number ends in
// the decline suffix.
type SimulatedGateway struct {
	declineSuffix string
}

// NewSimulatedGateway creates a SimulatedGateway.
func NewSimulatedGateway(declineSuffix string) *SimulatedGateway {
	return &SimulatedGateway{declineSuffix: declineSuffix}
}

// Charge returns a validation error for declined cards.
func (g *SimulatedGateway) Charge(_ context.Context, card Card, amountCents int64, _ string) error {
	if err := card.Validate(); err != nil {
		return err
	}
	if amountCents <= 0 {
		return domain.NewValidationError("charge amount must be positive")
	}
	if g.declineSuffix != "" && strings.HasSuffix(validation.NormalizeCardNumber(card.Number), g.declineSuffix) {
		return domain.NewValidationError("payment declined by the card issuer")
	}
	return nil
}
