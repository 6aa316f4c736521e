package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/driveease/service-rental/internal/common/database"
	"github.com/driveease/service-rental/internal/common/domain"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerModel is the GORM model for the customers table.
type CustomerModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username            string     `gorm:"uniqueIndex;not null;size:50"`
	PasswordHash        string     `gorm:"not null;size:100"`
	Name                string     `gorm:"not null;size:100"`
	Email               string     `gorm:"uniqueIndex;not null;size:254"`
	Phone               string     `gorm:"not null;size:20"`
	Address             string     `gorm:"size:300"`
	NIC                 string     `gorm:"column:nic;not null;size:12"`
	LicenceNumber       string     `gorm:"not null;size:12"`
	EmailVerified       bool       `gorm:"not null;default:false"`
	VerificationToken   string     `gorm:"size:64;index"`
	VerificationExpiry  *time.Time `gorm:""`
	PasswordResetToken  string     `gorm:"size:64;index"`
	PasswordResetExpiry *time.Time `gorm:""`
	Version             int64      `gorm:"not null;default:1"`
	CreatedAt           time.Time  `gorm:"not null"`
	UpdatedAt           time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CustomerModel) TableName() string {
	return "customers"
}

// GormCustomerRepository is the GORM-based implementation of CustomerRepository.
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository.
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID retrieves a customer by ID.
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error) {
	return r.findOne(ctx, "id = ?", id, id.String())
}

// FindByUsername retrieves a customer by username.
func (r *GormCustomerRepository) FindByUsername(ctx context.Context, username string) (*customerDomain.Customer, error) {
	return r.findOne(ctx, "username = ?", username, username)
}

// FindByEmail retrieves a customer by e-mail address.
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*customerDomain.Customer, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(email), email)
}

// FindByVerificationToken retrieves the customer holding an e-mail verification token.
func (r *GormCustomerRepository) FindByVerificationToken(ctx context.Context, token string) (*customerDomain.Customer, error) {
	return r.findOne(ctx, "verification_token = ?", token, "verification token")
}

// FindByPasswordResetToken retrieves the customer holding a password reset token.
func (r *GormCustomerRepository) FindByPasswordResetToken(ctx context.Context, token string) (*customerDomain.Customer, error) {
	return r.findOne(ctx, "password_reset_token = ?", token, "reset token")
}

func (r *GormCustomerRepository) findOne(ctx context.Context, cond string, arg interface{}, label string) (*customerDomain.Customer, error) {
	var model CustomerModel
	if err := database.Conn(ctx, r.db).Where(cond, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Customer", label)
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return toDomainCustomer(&model), nil
}

// List retrieves customers matching search across name, username, e-mail and NIC.
func (r *GormCustomerRepository) List(ctx context.Context, search string, page, limit int) ([]*customerDomain.Customer, int64, error) {
	query := database.Conn(ctx, r.db).Model(&CustomerModel{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + s + "%"
		query = query.Where("(name ILIKE ? OR username ILIKE ? OR email ILIKE ? OR nic ILIKE ?)", like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	var models []CustomerModel
	if err := query.Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}

	customers := make([]*customerDomain.Customer, len(models))
	for i := range models {
		customers[i] = toDomainCustomer(&models[i])
	}
	return customers, total, nil
}

// Save persists a new customer.
func (r *GormCustomerRepository) Save(ctx context.Context, c *customerDomain.Customer) error {
	model := toCustomerModel(c)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return translateWriteError(err, "save customer")
	}
	return nil
}

// Update persists changes to an existing customer with optimistic locking.
func (r *GormCustomerRepository) Update(ctx context.Context, c *customerDomain.Customer) error {
	model := toCustomerModel(c)
	result := database.Conn(ctx, r.db).
		Model(&CustomerModel{}).
		Where("id = ? AND version = ?", model.ID, c.Version()-1).
		Updates(map[string]interface{}{
			"password_hash":         model.PasswordHash,
			"name":                  model.Name,
			"email":                 model.Email,
			"phone":                 model.Phone,
			"address":               model.Address,
			"nic":                   model.NIC,
			"licence_number":        model.LicenceNumber,
			"email_verified":        model.EmailVerified,
			"verification_token":    model.VerificationToken,
			"verification_expiry":   model.VerificationExpiry,
			"password_reset_token":  model.PasswordResetToken,
			"password_reset_expiry": model.PasswordResetExpiry,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})
	if result.Error != nil {
		return translateWriteError(result.Error, "update customer")
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("customer was modified by another transaction")
	}
	return nil
}

// Delete removes a customer.
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&CustomerModel{})
	if result.Error != nil {
		return translateWriteError(result.Error, "delete customer")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Customer", id.String())
	}
	return nil
}

func toCustomerModel(c *customerDomain.Customer) *CustomerModel {
	s := c.Snapshot()
	return &CustomerModel{
		ID:                  s.ID,
		Username:            s.Username,
		PasswordHash:        s.PasswordHash,
		Name:                s.Profile.Name,
		Email:               s.Profile.Email,
		Phone:               s.Profile.Phone,
		Address:             s.Profile.Address,
		NIC:                 s.Profile.NIC,
		LicenceNumber:       s.Profile.LicenceNumber,
		EmailVerified:       s.EmailVerified,
		VerificationToken:   s.VerificationToken,
		VerificationExpiry:  s.VerificationExpiry,
		PasswordResetToken:  s.PasswordResetToken,
		PasswordResetExpiry: s.PasswordResetExpiry,
		Version:             s.Version,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func toDomainCustomer(m *CustomerModel) *customerDomain.Customer {
	return customerDomain.Reconstruct(customerDomain.Snapshot{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Profile: customerDomain.Profile{
			Name:          m.Name,
			Email:         m.Email,
			Phone:         m.Phone,
			Address:       m.Address,
			NIC:           m.NIC,
			LicenceNumber: m.LicenceNumber,
		},
		EmailVerified:       m.EmailVerified,
		VerificationToken:   m.VerificationToken,
		VerificationExpiry:  m.VerificationExpiry,
		PasswordResetToken:  m.PasswordResetToken,
		PasswordResetExpiry: m.PasswordResetExpiry,
		Version:             m.Version,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	})
}
