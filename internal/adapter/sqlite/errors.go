package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// mapError converts driver errors to domain errors, like the PostgreSQL
// adapter's MapError. Context errors pass through wrapped.
func mapError(err error, entity string, ref any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, ref, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, ref, domain.ErrNotFound)
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		if sentinel := constraintSentinel(sqErr); sentinel != nil {
			return fmt.Errorf("%s %v: %w", entity, ref, sentinel)
		}
	}
	return fmt.Errorf("%s %v: %w", entity, ref, err)
}

func constraintSentinel(e *sqlite.Error) error {
	switch e.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return domain.ErrAlreadyExists
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return domain.ErrNotFound
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return domain.ErrValidation
	}
	// Primary result code only: fall back to the message.
	if e.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}
	msg := e.Error()
	switch {
	case strings.Contains(msg, "UNIQUE"):
		return domain.ErrAlreadyExists
	case strings.Contains(msg, "FOREIGN KEY"):
		return domain.ErrNotFound
	case strings.Contains(msg, "CHECK"):
		return domain.ErrValidation
	}
	return nil
}
