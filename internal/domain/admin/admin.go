package admin

import (
	"context"
	"strings"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/google/uuid"
)

// Admin is a back-office account. There is no self-service for admins; the
// first one is seeded at start-up.
type Admin struct {
	id           uuid.UUID
	username     string
	passwordHash string
	createdAt    time.Time
}

// NewAdmin creates an Admin. passwordHash must already be hashed.
func NewAdmin(username, passwordHash string) (*Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("admin username is required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("admin password is required")
	}
	return &Admin{
		id:           uuid.New(),
		username:     username,
		passwordHash: passwordHash,
		createdAt:    time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds an Admin from persistence.
func Reconstruct(id uuid.UUID, username, passwordHash string, createdAt time.Time) *Admin {
	return &Admin{id: id, username: username, passwordHash: passwordHash, createdAt: createdAt}
}

func (a *Admin) ID() uuid.UUID        { return a.id }
func (a *Admin) Username() string     { return a.username }
func (a *Admin) PasswordHash() string { return a.passwordHash }
func (a *Admin) CreatedAt() time.Time { return a.createdAt }

// AdminRepository defines persistence operations for admins.
type AdminRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	Count(ctx context.Context) (int64, error)
	Save(ctx context.Context, admin *Admin) error
}
