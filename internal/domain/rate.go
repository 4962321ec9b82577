package domain

import (
	"context"
	"time"
)

// RateRecord is the cached rate of a single currency code.
// LastUpdateDay is nil until the first successful apply.
type RateRecord struct {
	Code          string
	Rate          float64
	LastUpdateDay *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsUnfetched reports a record created on first sight and never applied.
func (r *RateRecord) IsUnfetched() bool {
	return r.Rate == 0 && r.LastUpdateDay == nil
}

type RateRepository interface {
	// FindByCode returns ErrRateNotFound when the code has no record yet.
	FindByCode(ctx context.Context, code string) (*RateRecord, error)
	Upsert(ctx context.Context, record *RateRecord) error
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type RateLister interface {
	ListRates(ctx context.Context) ([]*RateRecord, error)
}
