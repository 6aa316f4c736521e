package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/domain"
	adminDomain "github.com/driveease/service-rental/internal/domain/admin"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileRequest is the editable part of a customer account.
type ProfileRequest struct {
	Name          string `json:"name" binding:"required,max=100"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone" binding:"required,max=20"`
	Address       string `json:"address" binding:"max=255"`
	NIC           string `json:"nic" binding:"required,nic"`
	LicenceNumber string `json:"licence_number" binding:"required,licence"`
}

func (r ProfileRequest) profile() customerDomain.Profile {
	return customerDomain.Profile{
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		NIC:           r.NIC,
		LicenceNumber: r.LicenceNumber,
	}
}

// RegisterRequest creates a customer account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	ProfileRequest
}

// LoginRequest authenticates an admin or a customer.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// AuthResponse is returned on login and refresh.
type AuthResponse struct {
	Tokens   *auth.TokenPair `json:"tokens"`
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Role     auth.Role       `json:"role"`
}

// AccountService handles registration, authentication and customer administration.
type AccountService struct {
	customers  customerDomain.CustomerRepository
	admins     adminDomain.AdminRepository
	bookings   bookingDomain.BookingRepository
	jwtManager *auth.JWTManager
	mailer     Mailer
	appBaseURL string
	logger     *zap.Logger
	now        clock
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	customers customerDomain.CustomerRepository,
	admins adminDomain.AdminRepository,
	bookings bookingDomain.BookingRepository,
	jwtManager *auth.JWTManager,
	mailer Mailer,
	appBaseURL string,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		customers:  customers,
		admins:     admins,
		bookings:   bookings,
		jwtManager: jwtManager,
		mailer:     mailer,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a customer and e-mails a verification link.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*CustomerDTO, error) {
	c, err := s.newCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	token, err := c.IssueVerificationToken(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.customers.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("customer registered", zap.String("customer_id", c.ID().String()))
	s.sendMail(ctx, c, "Verify your e-mail address",
		fmt.Sprintf("Hello %s,\n\nPlease verify your e-mail address by opening %s/verify-email?token=%s\n\nThe link expires in 24 hours.",
			c.Name(), s.appBaseURL, token))

	result := toCustomerDTO(c)
	return &result, nil
}

// VerifyEmail confirms the address the token was sent to.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	c, err := s.customers.FindByVerificationToken(ctx, token)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.NewValidationError("invalid or expired verification token")
		}
		return err
	}
	if err := c.VerifyEmail(token, s.now()); err != nil {
		return err
	}
	c.IncrementVersion()
	return s.customers.Update(ctx, c)
}

// RequestPasswordReset e-mails a reset link. Unknown addresses succeed silently.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	c, err := s.customers.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	token, err := c.IssuePasswordResetToken(s.now())
	if err != nil {
		return err
	}
	c.IncrementVersion()
	if err := s.customers.Update(ctx, c); err != nil {
		return err
	}

	s.sendMail(ctx, c, "Reset your password",
		fmt.Sprintf("Hello %s,\n\nReset your password by opening %s/reset-password?token=%s\n\nThe link expires in 1 hour. Ignore this e-mail if you did not ask for a reset.",
			c.Name(), s.appBaseURL, token))
	return nil
}

// ResetPassword sets a new password using a reset token.
func (s *AccountService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	c, err := s.customers.FindByPasswordResetToken(ctx, req.Token)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.NewValidationError("invalid or expired reset token")
		}
		return err
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := c.ResetPassword(req.Token, hash, s.now()); err != nil {
		return err
	}
	c.IncrementVersion()
	return s.customers.Update(ctx, c)
}

// Login checks credentials against admins first, then customers.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	invalid := domain.NewUnauthorizedError("invalid username or password")

	a, err := s.admins.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !auth.CheckPassword(a.PasswordHash(), req.Password) {
			return nil, invalid
		}
		return s.issue(auth.Principal{UserID: a.ID(), Username: a.Username(), Role: auth.RoleAdmin})
	case !domain.IsNotFound(err):
		return nil, err
	}

	c, err := s.customers.FindByUsername(ctx, username)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !auth.CheckPassword(c.PasswordHash(), req.Password) {
		return nil, invalid
	}
	return s.issue(auth.Principal{UserID: c.ID(), Username: c.Username(), Role: auth.RoleCustomer})
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	p, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid or expired refresh token")
	}

	// The account may have been removed since the token was issued.
	if p.IsAdmin() {
		if _, err := s.admins.FindByID(ctx, p.UserID); err != nil {
			return nil, domain.NewUnauthorizedError("account no longer exists")
		}
	} else if _, err := s.customers.FindByID(ctx, p.UserID); err != nil {
		return nil, domain.NewUnauthorizedError("account no longer exists")
	}
	return s.issue(p)
}

func (s *AccountService) issue(p auth.Principal) (*AuthResponse, error) {
	tokens, err := s.jwtManager.GenerateTokenPair(p)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &AuthResponse{Tokens: tokens, UserID: p.UserID, Username: p.Username, Role: p.Role}, nil
}

// GetProfile returns the calling customer's account.
func (s *AccountService) GetProfile(ctx context.Context, p auth.Principal) (*CustomerDTO, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	c, err := s.customers.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	result := toCustomerDTO(c)
	return &result, nil
}

// UpdateProfile edits the calling customer's account.
func (s *AccountService) UpdateProfile(ctx context.Context, p auth.Principal, req ProfileRequest) (*CustomerDTO, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	return s.updateCustomer(ctx, p.UserID, req)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, p auth.Principal, req ChangePasswordRequest) error {
	if err := requireCustomer(p); err != nil {
		return err
	}
	c, err := s.customers.FindByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(c.PasswordHash(), req.CurrentPassword) {
		return domain.NewValidationError("current password is incorrect")
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	c.SetPasswordHash(hash)
	c.IncrementVersion()
	return s.customers.Update(ctx, c)
}

// --- Admin methods ---

// ListCustomers returns customers matching search, paginated.
func (s *AccountService) ListCustomers(ctx context.Context, search string, page, limit int) ([]CustomerDTO, int64, error) {
	customers, total, err := s.customers.List(ctx, strings.TrimSpace(search), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = toCustomerDTO(c)
	}
	return dtos, total, nil
}

// GetCustomer returns one customer.
func (s *AccountService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toCustomerDTO(c)
	return &result, nil
}

// CreateCustomer adds a customer on their behalf. No verification e-mail is sent.
func (s *AccountService) CreateCustomer(ctx context.Context, req RegisterRequest) (*CustomerDTO, error) {
	c, err := s.newCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.customers.Save(ctx, c); err != nil {
		return nil, err
	}
	result := toCustomerDTO(c)
	return &result, nil
}

// UpdateCustomer edits any customer's profile.
func (s *AccountService) UpdateCustomer(ctx context.Context, id uuid.UUID, req ProfileRequest) (*CustomerDTO, error) {
	return s.updateCustomer(ctx, id, req)
}

// DeleteCustomer removes a customer without reserving bookings.
func (s *AccountService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customers.FindByID(ctx, id); err != nil {
		return err
	}
	reserved, err := s.bookings.HasReservingForCustomer(ctx, id)
	if err != nil {
		return err
	}
	if reserved {
		return domain.NewConflictError("customer has active bookings and cannot be deleted")
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("customer deleted", zap.String("customer_id", id.String()))
	return nil
}

// SeedAdmin creates the bootstrap administrator when no admin exists yet.
func (s *AccountService) SeedAdmin(ctx context.Context, username, password string) error {
	n, err := s.admins.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if len(password) < auth.MinPasswordLength {
		return domain.NewValidationError(fmt.Sprintf("admin password must be at least %d characters", auth.MinPasswordLength))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	a, err := adminDomain.NewAdmin(username, hash)
	if err != nil {
		return err
	}
	if err := s.admins.Save(ctx, a); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", a.Username()))
	return nil
}

func (s *AccountService) newCustomer(ctx context.Context, req RegisterRequest) (*customerDomain.Customer, error) {
	if len(req.Password) < auth.MinPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	username := strings.TrimSpace(req.Username)
	if err := s.ensureUsernameFree(ctx, username); err != nil {
		return nil, err
	}

	profile := req.profile().Normalized()
	if err := s.ensureEmailFree(ctx, profile.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	return customerDomain.NewCustomer(username, hash, profile)
}

func (s *AccountService) updateCustomer(ctx context.Context, id uuid.UUID, req ProfileRequest) (*CustomerDTO, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := req.profile().Normalized()
	if err := s.ensureEmailFree(ctx, profile.Email, id); err != nil {
		return nil, err
	}
	if err := c.UpdateProfile(profile); err != nil {
		return nil, err
	}
	c.IncrementVersion()
	if err := s.customers.Update(ctx, c); err != nil {
		return nil, err
	}
	result := toCustomerDTO(c)
	return &result, nil
}

// ensureUsernameFree checks both account tables so login stays unambiguous.
func (s *AccountService) ensureUsernameFree(ctx context.Context, username string) error {
	taken := domain.NewConflictError("username is already taken")
	if _, err := s.admins.FindByUsername(ctx, username); err == nil {
		return taken
	} else if !domain.IsNotFound(err) {
		return err
	}
	if _, err := s.customers.FindByUsername(ctx, username); err == nil {
		return taken
	} else if !domain.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *AccountService) ensureEmailFree(ctx context.Context, email string, ownerID uuid.UUID) error {
	existing, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID() != ownerID {
		return domain.NewConflictError("e-mail address is already registered")
	}
	return nil
}

func (s *AccountService) sendMail(ctx context.Context, c *customerDomain.Customer, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendEmail(ctx, c.Email(), c.Name(), subject, body); err != nil {
		s.logger.Warn("failed to send account e-mail",
			zap.String("customer_id", c.ID().String()),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
