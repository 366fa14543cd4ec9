package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

const uniqueViolation = "23505"

// mapErr wraps err under op, translating no-rows and unique violations
// into the domain sentinels.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("op=%s: %w: %s", op, domain.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return fmt.Errorf("op=%s: %w", op, err)
}
