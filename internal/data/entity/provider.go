package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider is the read-only slice of the provider profile that scheduling needs.
type Provider struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	Timezone   string    `db:"timezone"`
	IsBookable bool      `db:"is_bookable"`
}

func (p *Provider) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q for provider %s: %w", p.Timezone, p.ID, err)
	}
	return loc, nil
}

type ProviderService struct {
	ID               uuid.UUID       `db:"id"`
	ProviderID       uuid.UUID       `db:"provider_id"`
	Name             string          `db:"name"`
	AllowedDurations []int           `db:"allowed_durations"`
	Price            decimal.Decimal `db:"price"`
	IsActive         bool            `db:"is_active"`
}

func (s *ProviderService) AllowsDuration(minutes int) bool {
	return slices.Contains(s.AllowedDurations, minutes)
}
