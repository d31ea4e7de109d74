package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist in the caller's school.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("record already exists")
	// ErrDependencyExists is returned when a row is still referenced elsewhere.
	ErrDependencyExists = errors.New("record is still referenced")
)

// translate maps pgx errors to the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrDependencyExists
		}
	}
	return err
}

// expectOne turns a zero-row command into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
