package repository

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode = "23505"
	pgNotNullCode      = "23502"
	pgCheckCode        = "23514"
)

// ErrConstraint indicates a row violated a NOT NULL or CHECK constraint.
var ErrConstraint = errors.New("constraint violation")

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to notFoundErr, PostgreSQL unique violation (23505)
// to duplicateErr, and NOT NULL or CHECK violations to ErrConstraint naming
// the constraint. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgDuplicateKeyCode:
			return duplicateErr
		case pgNotNullCode, pgCheckCode:
			return fmt.Errorf("%w: %s", ErrConstraint, cmp.Or(pgErr.ConstraintName, pgErr.ColumnName))
		}
	}

	return err
}
