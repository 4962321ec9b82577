package mappers

import (
	"testing"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/models"
	"github.com/stretchr/testify/assert"
)

func TestToGORMRateTruncatesDay(t *testing.T) {
	ts := time.Date(2024, 5, 2, 13, 45, 0, 0, time.UTC)
	model := ToGORMRate(&domain.RateRecord{Code: "EUR", Rate: 0.92, LastUpdateDay: &ts})

	assert.Equal(t, "EUR", model.Code)
	assert.Equal(t, 0.92, model.Rate)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), *model.LastUpdateDay)
}

func TestToDomainRateKeepsCalendarDay(t *testing.T) {
	// 2024-05-02 as read back by a driver in a UTC+3 session
	local := time.Date(2024, 5, 2, 0, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	record := ToDomainRate(&models.CurrencyRateModel{Code: "RUB", Rate: 91.5, LastUpdateDay: &local})

	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), *record.LastUpdateDay)
}

func TestNilDayRoundTrip(t *testing.T) {
	record := ToDomainRate(ToGORMRate(&domain.RateRecord{Code: "USD"}))

	assert.Nil(t, record.LastUpdateDay)
	assert.True(t, record.IsUnfetched())
}
