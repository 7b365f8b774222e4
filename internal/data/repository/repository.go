package repository

import (
	"time"

	"appointment-booking/pkg/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	Booking   BookingRepository
	History   BookingHistoryRepository
	Schedule  ScheduleRepository
	Directory DirectoryRepository
	Tx        TxManager
}

// NewRepository wires the pgx repositories. A nil cache or zero TTL leaves
// working schedules uncached.
func NewRepository(db database.PgxIface, cache redis.Cmdable, scheduleTTL time.Duration, log *zap.Logger) *Repository {
	var schedule ScheduleRepository = NewScheduleRepository(db, log)
	if cache != nil && scheduleTTL > 0 {
		schedule = NewCachedScheduleRepository(schedule, cache, scheduleTTL, log)
	}

	return &Repository{
		Booking:   NewBookingRepository(db, log),
		History:   NewBookingHistoryRepository(db, log),
		Schedule:  schedule,
		Directory: NewDirectoryRepository(db, log),
		Tx:        NewTxManager(db, log),
	}
}
