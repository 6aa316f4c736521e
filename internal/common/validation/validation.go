package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// Old format: nine digits and V or X. New format: twelve digits.
	nicPattern = regexp.MustCompile(`^(\d{9}[VX]|\d{12})$`)
	// One letter and seven digits, or twelve digits.
	licencePattern = regexp.MustCompile(`^([A-Z]\d{7}|\d{12})$`)
	// MM/YY or MMYY.
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/?([0-9]{2})$`)
	cvcPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
	cardNumberPattern = regexp.MustCompile(`^[0-9]{12,19}$`)
)

// NormalizeID trims and upper-cases an identity document number.
func NormalizeID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidNIC reports whether s is a national identity card number.
func ValidNIC(s string) bool {
	return nicPattern.MatchString(NormalizeID(s))
}

// ValidLicence reports whether s is a driving licence number.
func ValidLicence(s string) bool {
	return licencePattern.MatchString(NormalizeID(s))
}

// ValidEmail reports whether s is a single bare e-mail address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}

// ValidCardExpiry reports whether s is MM/YY or MMYY.
func ValidCardExpiry(s string) bool {
	return cardExpiryPattern.MatchString(strings.TrimSpace(s))
}

// ValidCVC reports whether s is three or four digits.
func ValidCVC(s string) bool {
	return cvcPattern.MatchString(strings.TrimSpace(s))
}

// NormalizeCardNumber strips spaces and dashes.
func NormalizeCardNumber(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// ValidCardNumber reports whether s is 12 to 19 digits once separators are removed.
func ValidCardNumber(s string) bool {
	return cardNumberPattern.MatchString(NormalizeCardNumber(s))
}

// RegisterBindingTags adds the nic, licence, card_expiry and cvc tags to gin's validator.
func RegisterBindingTags() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	tags := map[string]func(string) bool{
		"nic":         ValidNIC,
		"licence":     ValidLicence,
		"card_expiry": ValidCardExpiry,
		"cvc":         ValidCVC,
		"card_number": ValidCardNumber,
	}
	for tag, fn := range tags {
		fn := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}
