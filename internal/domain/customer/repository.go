package customer

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByUsername(ctx context.Context, username string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	FindByVerificationToken(ctx context.Context, token string) (*Customer, error)
	FindByPasswordResetToken(ctx context.Context, token string) (*Customer, error)
	List(ctx context.Context, search string, page, limit int) ([]*Customer, int64, error)
	Save(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}
