package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"time"

	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LockKey identifies one provider calendar day. Every write that touches a
// provider's bookings on that local date serialises on it.
type LockKey struct {
	ProviderID uuid.UUID
	Date       string // provider-local YYYY-MM-DD
}

func (k LockKey) String() string {
	return k.ProviderID.String() + "/" + k.Date
}

// Hash folds the key into the int64 space of pg advisory locks.
func (k LockKey) Hash() int64 {
	h := fnv.New64a()
	h.Write(k.ProviderID[:])
	h.Write([]byte(k.Date))
	return int64(h.Sum64())
}

// SortLockKeys returns the keys deduplicated and in acquisition order.
func SortLockKeys(keys []LockKey) []LockKey {
	sorted := slices.Clone(keys)
	slices.SortFunc(sorted, func(a, b LockKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return slices.Compact(sorted)
}

// TxRepository exposes the repositories bound to one transaction.
type TxRepository struct {
	Booking BookingRepository
	History BookingHistoryRepository
}

type TxManager interface {
	// WithReservationLock runs fn inside one transaction that first acquires
	// every key, waiting at most timeout per key. fn's error rolls back.
	WithReservationLock(ctx context.Context, keys []LockKey, timeout time.Duration, fn func(ctx context.Context, tx *TxRepository) error) error
}

type txManager struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTxManager(db database.PgxIface, log *zap.Logger) TxManager {
	return &txManager{
		db:  db,
		log: log.With(zap.String("repository", "tx_manager")),
	}
}

func (m *txManager) WithReservationLock(ctx context.Context, keys []LockKey, timeout time.Duration, fn func(ctx context.Context, tx *TxRepository) error) (err error) {
	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapPgError(err))
	}
	defer func() {
		// panic di fn tetap harus melepas advisory lock
		if p := recover(); p != nil {
			m.rollback(ctx, tx)
			panic(p)
		}
		if err != nil {
			m.rollback(ctx, tx)
		}
	}()

	if timeout > 0 {
		if _, err = tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", fmt.Sprintf("%dms", timeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock timeout: %w", mapLockError(err))
		}
	}

	for _, key := range SortLockKeys(keys) {
		if _, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key.Hash()); err != nil {
			m.log.Warn("Reservation lock not acquired", zap.String("key", key.String()), zap.Error(err))
			return fmt.Errorf("acquire lock %s: %w", key, mapLockError(err))
		}
	}

	if err = fn(ctx, &TxRepository{
		Booking: NewBookingRepository(tx, m.log),
		History: NewBookingHistoryRepository(tx, m.log),
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapPgError(err))
	}
	return nil
}

func (m *txManager) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		m.log.Error("Failed to rollback transaction", zap.Error(err))
	}
}
