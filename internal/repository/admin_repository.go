package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/common/database"
	"github.com/driveease/service-rental/internal/common/domain"
	adminDomain "github.com/driveease/service-rental/internal/domain/admin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminModel is the GORM model for the admins table.
type AdminModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null;size:50"`
	PasswordHash string    `gorm:"not null;size:100"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (AdminModel) TableName() string { return "admins" }

// GormAdminRepository implements AdminRepository using GORM.
type GormAdminRepository struct {
	db *gorm.DB
}

// NewGormAdminRepository creates a new GormAdminRepository.
func NewGormAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// FindByID returns an admin by ID.
func (r *GormAdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*adminDomain.Admin, error) {
	return r.findOne(ctx, "id = ?", id, id.String())
}

// FindByUsername returns an admin by username.
func (r *GormAdminRepository) FindByUsername(ctx context.Context, username string) (*adminDomain.Admin, error) {
	return r.findOne(ctx, "username = ?", username, username)
}

func (r *GormAdminRepository) findOne(ctx context.Context, cond string, arg interface{}, label string) (*adminDomain.Admin, error) {
	var m AdminModel
	if err := database.Conn(ctx, r.db).Where(cond, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Admin", label)
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return adminDomain.Reconstruct(m.ID, m.Username, m.PasswordHash, m.CreatedAt), nil
}

// Count returns the number of admins.
func (r *GormAdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := database.Conn(ctx, r.db).Model(&AdminModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}

// Save persists a new admin.
func (r *GormAdminRepository) Save(ctx context.Context, a *adminDomain.Admin) error {
	m := AdminModel{
		ID:           a.ID(),
		Username:     a.Username(),
		PasswordHash: a.PasswordHash(),
		CreatedAt:    a.CreatedAt(),
	}
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateWriteError(err, "save admin")
	}
	return nil
}
