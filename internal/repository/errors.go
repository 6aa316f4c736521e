package repository

import (
	"errors"
	"fmt"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

// translateWriteError turns constraint violations into domain conflicts and wraps
// everything else with action.
func translateWriteError(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return domain.NewConflictError("car is already booked for the selected dates")
		case pgUniqueViolation:
			return domain.NewConflictError(fmt.Sprintf("duplicate value violates %s", pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return domain.NewConflictError(fmt.Sprintf("record is still referenced (%s)", pgErr.ConstraintName))
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
