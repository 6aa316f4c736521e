package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the kind of account behind a token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// IsCustomer reports whether the principal holds the customer role.
func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }

// Claims is the JWT payload.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is issued on login.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTManager issues and validates HS256 tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTManager creates a new JWTManager.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateTokenPair issues an access and refresh token for the principal.
func (m *JWTManager) GenerateTokenPair(p Principal) (*TokenPair, error) {
	now := m.now()
	access, err := m.sign(p, now, m.accessTTL, "access")
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(p, now, m.refreshTTL, "refresh")
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(m.accessTTL),
	}, nil
}

// ValidateAccessToken parses an access token and returns its principal.
func (m *JWTManager) ValidateAccessToken(token string) (Principal, error) {
	return m.validate(token, "access")
}

// ValidateRefreshToken parses a refresh token and returns its principal.
func (m *JWTManager) ValidateRefreshToken(token string) (Principal, error) {
	return m.validate(token, "refresh")
}

func (m *JWTManager) sign(p Principal, now time.Time, ttl time.Duration, subject string) (string, error) {
	claims := Claims{
		UserID:   p.UserID,
		Username: p.Username,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *JWTManager) validate(token, subject string) (Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	if claims.Subject != subject || !claims.Role.IsValid() {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}
