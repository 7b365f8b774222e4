package repository

import (
	"context"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DirectoryRepository reads provider and service profiles. It never writes.
type DirectoryRepository interface {
	FindProvider(ctx context.Context, id uuid.UUID) (*entity.Provider, error)
	FindService(ctx context.Context, id uuid.UUID) (*entity.ProviderService, error)
}

type directoryRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewDirectoryRepository(db database.Querier, log *zap.Logger) DirectoryRepository {
	return &directoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "directory")),
	}
}

func (r *directoryRepository) FindProvider(ctx context.Context, id uuid.UUID) (*entity.Provider, error) {
	query := `SELECT id, name, timezone, is_bookable FROM providers WHERE id = $1`

	var p entity.Provider
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Timezone, &p.IsBookable)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find provider", zap.Error(err), zap.String("provider_id", id.String()))
		return nil, fmt.Errorf("find provider %s: %w", id, mapPgError(err))
	}

	return &p, nil
}

func (r *directoryRepository) FindService(ctx context.Context, id uuid.UUID) (*entity.ProviderService, error) {
	query := `
		SELECT id, provider_id, name, allowed_durations, price, is_active
		FROM provider_services
		WHERE id = $1
	`

	var s entity.ProviderService
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.ProviderID, &s.Name, &s.AllowedDurations, &s.Price, &s.IsActive)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service", zap.Error(err), zap.String("service_id", id.String()))
		return nil, fmt.Errorf("find service %s: %w", id, mapPgError(err))
	}

	return &s, nil
}
