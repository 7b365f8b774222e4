package repository

import (
	"context"
	"errors"
	"fmt"

	"appointment-booking/internal/scheduling"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlStateLockNotAvailable   = "55P03"
	sqlStateExclusionViolation = "23P01"
)

// mapPgError turns driver errors into domain errors. Anything unrecognised is
// reported as a temporary persistence failure.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateLockNotAvailable:
			return fmt.Errorf("%w: %s", scheduling.ErrReservationTimeout, pgErr.Message)
		case sqlStateExclusionViolation:
			return fmt.Errorf("%w: %s", scheduling.ErrSlotUnavailable, pgErr.ConstraintName)
		}
	}
	return scheduling.Temporary(err)
}

// mapLockError is mapPgError for the lock acquisition statements, where a
// context deadline means we gave up waiting for the lock.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", scheduling.ErrReservationTimeout, err)
	}
	return mapPgError(err)
}
