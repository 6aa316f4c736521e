package customer

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/driveease/service-rental/internal/common/validation"
	"github.com/google/uuid"
)

const (
	VerificationTokenTTL  = 24 * time.Hour
	PasswordResetTokenTTL = time.Hour
	minUsernameLength     = 3
)

// Profile is the editable personal data of a customer.
type Profile struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	NIC           string
	LicenceNumber string
}

// Normalized trims every field and canonicalises identity numbers.
func (p Profile) Normalized() Profile {
	return Profile{
		Name:          strings.TrimSpace(p.Name),
		Email:         strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:         strings.TrimSpace(p.Phone),
		Address:       strings.TrimSpace(p.Address),
		NIC:           validation.NormalizeID(p.NIC),
		LicenceNumber: validation.NormalizeID(p.LicenceNumber),
	}
}

// Validate checks the profile's required fields and formats.
func (p Profile) Validate() error {
	if p.Name == "" {
		return domain.NewValidationError("name is required")
	}
	if !validation.ValidEmail(p.Email) {
		return domain.NewValidationError("invalid email address")
	}
	if p.Phone == "" {
		return domain.NewValidationError("phone number is required")
	}
	if !validation.ValidNIC(p.NIC) {
		return domain.NewValidationError("invalid NIC number")
	}
	if !validation.ValidLicence(p.LicenceNumber) {
		return domain.NewValidationError("invalid driving licence number")
	}
	return nil
}

// token is a one-time secret with an expiry.
type token struct {
	value     string
	expiresAt time.Time
}

func (t *token) matches(value string, now time.Time) bool {
	if t == nil || value == "" {
		return false
	}
	if now.After(t.expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t.value), []byte(value)) == 1
}

// Customer is the aggregate root for a renting customer.
type Customer struct {
	id            uuid.UUID
	username      string
	passwordHash  string
	profile       Profile
	emailVerified bool
	verification  *token
	passwordReset *token

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewCustomer creates a Customer. passwordHash must already be hashed.
func NewCustomer(username, passwordHash string, profile Profile) (*Customer, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLength {
		return nil, domain.NewValidationError(fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password is required")
	}
	profile = profile.Normalized()
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Customer{
		id:           uuid.New(),
		username:     username,
		passwordHash: passwordHash,
		profile:      profile,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Snapshot carries every persisted field of a Customer.
type Snapshot struct {
	ID                  uuid.UUID
	Username            string
	PasswordHash        string
	Profile             Profile
	EmailVerified       bool
	VerificationToken   string
	VerificationExpiry  *time.Time
	PasswordResetToken  string
	PasswordResetExpiry *time.Time
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Reconstruct rebuilds a Customer from persistence data (no validation).
func Reconstruct(s Snapshot) *Customer {
	c := &Customer{
		id:            s.ID,
		username:      s.Username,
		passwordHash:  s.PasswordHash,
		profile:       s.Profile,
		emailVerified: s.EmailVerified,
		version:       s.Version,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}
	if s.VerificationToken != "" && s.VerificationExpiry != nil {
		c.verification = &token{value: s.VerificationToken, expiresAt: *s.VerificationExpiry}
	}
	if s.PasswordResetToken != "" && s.PasswordResetExpiry != nil {
		c.passwordReset = &token{value: s.PasswordResetToken, expiresAt: *s.PasswordResetExpiry}
	}
	return c
}

// Snapshot returns the persisted fields of the customer.
func (c *Customer) Snapshot() Snapshot {
	s := Snapshot{
		ID:            c.id,
		Username:      c.username,
		PasswordHash:  c.passwordHash,
		Profile:       c.profile,
		EmailVerified: c.emailVerified,
		Version:       c.version,
		CreatedAt:     c.createdAt,
		UpdatedAt:     c.updatedAt,
	}
	if c.verification != nil {
		exp := c.verification.expiresAt
		s.VerificationToken = c.verification.value
		s.VerificationExpiry = &exp
	}
	if c.passwordReset != nil {
		exp := c.passwordReset.expiresAt
		s.PasswordResetToken = c.passwordReset.value
		s.PasswordResetExpiry = &exp
	}
	return s
}

func (c *Customer) ID() uuid.UUID         { return c.id }
func (c *Customer) Username() string      { return c.username }
func (c *Customer) PasswordHash() string  { return c.passwordHash }
func (c *Customer) Profile() Profile      { return c.profile }
func (c *Customer) Email() string         { return c.profile.Email }
func (c *Customer) Name() string          { return c.profile.Name }
func (c *Customer) Phone() string         { return c.profile.Phone }
func (c *Customer) EmailVerified() bool   { return c.emailVerified }
func (c *Customer) Version() int64        { return c.version }
func (c *Customer) CreatedAt() time.Time  { return c.createdAt }
func (c *Customer) UpdatedAt() time.Time  { return c.updatedAt }

// UpdateProfile replaces the personal data. Changing the e-mail address clears
// its verified flag.
func (c *Customer) UpdateProfile(profile Profile) error {
	profile = profile.Normalized()
	if err := profile.Validate(); err != nil {
		return err
	}
	if profile.Email != c.profile.Email {
		c.emailVerified = false
	}
	c.profile = profile
	c.updatedAt = time.Now().UTC()
	return nil
}

// SetPasswordHash replaces the stored password hash.
func (c *Customer) SetPasswordHash(hash string) {
	c.passwordHash = hash
	c.updatedAt = time.Now().UTC()
}

// IssueVerificationToken creates a fresh e-mail verification token.
func (c *Customer) IssueVerificationToken(now time.Time) (string, error) {
	value, err := newTokenValue()
	if err != nil {
		return "", err
	}
	c.verification = &token{value: value, expiresAt: now.UTC().Add(VerificationTokenTTL)}
	c.updatedAt = now.UTC()
	return value, nil
}

// VerifyEmail consumes the verification token.
func (c *Customer) VerifyEmail(value string, now time.Time) error {
	if !c.verification.matches(value, now) {
		return domain.NewValidationError("invalid or expired verification token")
	}
	c.emailVerified = true
	c.verification = nil
	c.updatedAt = now.UTC()
	return nil
}

// IssuePasswordResetToken creates a fresh password reset token.
func (c *Customer) IssuePasswordResetToken(now time.Time) (string, error) {
	value, err := newTokenValue()
	if err != nil {
		return "", err
	}
	c.passwordReset = &token{value: value, expiresAt: now.UTC().Add(PasswordResetTokenTTL)}
	c.updatedAt = now.UTC()
	return value, nil
}

// ResetPassword consumes the reset token and stores the new hash.
func (c *Customer) ResetPassword(value, newHash string, now time.Time) error {
	if !c.passwordReset.matches(value, now) {
		return domain.NewValidationError("invalid or expired password reset token")
	}
	c.passwordHash = newHash
	c.passwordReset = nil
	c.updatedAt = now.UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (c *Customer) IncrementVersion() {
	c.version++
	c.updatedAt = time.Now().UTC()
}

func newTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
