package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors. ref identifies the
// row (a key or an ID) in the message.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func MapError(err error, entity string, ref any) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, ref, err)
	}

	// pgx.ErrNoRows → domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, ref, domain.ErrNotFound)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %v: %w", entity, ref, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %v: %w", entity, ref, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %v: %w", entity, ref, domain.ErrValidation)
		}
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s %v: %w", entity, ref, err)
}
