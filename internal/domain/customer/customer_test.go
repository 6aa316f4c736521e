package customer

import (
	"testing"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() Profile {
	return Profile{
		Name:          "Nimal Perera",
		Email:         " Nimal@Example.com ",
		Phone:         "+94771234567",
		Address:       "12 Galle Road, Colombo 03",
		NIC:           "199012345678",
		LicenceNumber: "b1234567",
	}
}

func newTestCustomer(t *testing.T) *Customer {
	t.Helper()
	c, err := NewCustomer("nimal", "hash", validProfile())
	require.NoError(t, err)
	return c
}

func TestNewCustomer_NormalizesProfile(t *testing.T) {
	c := newTestCustomer(t)

	assert.Equal(t, "nimal@example.com", c.Email())
	assert.Equal(t, "B1234567", c.Profile().LicenceNumber)
	assert.False(t, c.EmailVerified())
	assert.Equal(t, int64(1), c.Version())
}

func TestNewCustomer_Validation(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		mutate func(p *Profile)
	}{
		{"short username", "ab", func(p *Profile) {}},
		{"missing name", "nimal", func(p *Profile) { p.Name = "" }},
		{"bad email", "nimal", func(p *Profile) { p.Email = "nimal@" }},
		{"missing phone", "nimal", func(p *Profile) { p.Phone = "" }},
		{"bad nic", "nimal", func(p *Profile) { p.NIC = "12345" }},
		{"bad licence", "nimal", func(p *Profile) { p.LicenceNumber = "AB123" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			_, err := NewCustomer(tt.user, "hash", p)
			assert.True(t, domain.HasCode(err, domain.CodeValidation))
		})
	}
}

func TestProfile_AcceptsOldNICFormat(t *testing.T) {
	p := validProfile()
	p.NIC = "901234567v"
	p.LicenceNumber = "200012345678"
	assert.NoError(t, p.Normalized().Validate())
}

func TestCustomer_VerifyEmail(t *testing.T) {
	c := newTestCustomer(t)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	token, err := c.IssueVerificationToken(now)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	assert.Error(t, c.VerifyEmail("wrong", now))
	assert.Error(t, c.VerifyEmail(token, now.Add(VerificationTokenTTL+time.Minute)), "expired token")

	require.NoError(t, c.VerifyEmail(token, now.Add(time.Hour)))
	assert.True(t, c.EmailVerified())
	assert.Error(t, c.VerifyEmail(token, now.Add(time.Hour)), "token is single use")
}

func TestCustomer_ResetPassword(t *testing.T) {
	c := newTestCustomer(t)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	token, err := c.IssuePasswordResetToken(now)
	require.NoError(t, err)

	assert.Error(t, c.ResetPassword(token, "new-hash", now.Add(2*PasswordResetTokenTTL)))
	assert.Equal(t, "hash", c.PasswordHash())

	require.NoError(t, c.ResetPassword(token, "new-hash", now.Add(time.Minute)))
	assert.Equal(t, "new-hash", c.PasswordHash())
}

func TestCustomer_UpdateProfileClearsVerification(t *testing.T) {
	c := newTestCustomer(t)
	now := time.Now().UTC()
	token, err := c.IssueVerificationToken(now)
	require.NoError(t, err)
	require.NoError(t, c.VerifyEmail(token, now))

	p := validProfile()
	p.Phone = "+94770000000"
	require.NoError(t, c.UpdateProfile(p))
	assert.True(t, c.EmailVerified(), "same address stays verified")

	p.Email = "other@example.com"
	require.NoError(t, c.UpdateProfile(p))
	assert.False(t, c.EmailVerified())
}
