package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func dayPtr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}

func TestEvaluate(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record *RateRecord
		now    time.Time
		want   Freshness
	}{
		{
			name: "no record",
			now:  today,
			want: Missing,
		},
		{
			name:   "never confirmed",
			record: &RateRecord{Code: "EUR"},
			now:    today,
			want:   Stale,
		},
		{
			name:   "updated today",
			record: &RateRecord{Code: "EUR", Rate: 1.1, LastUpdateDay: dayPtr(today)},
			now:    today,
			want:   Fresh,
		},
		{
			name:   "updated today, evaluated just before midnight",
			record: &RateRecord{Code: "EUR", Rate: 1.1, LastUpdateDay: dayPtr(today)},
			now:    today.Add(23*time.Hour + 59*time.Minute + 59*time.Second),
			want:   Fresh,
		},
		{
			name:   "updated yesterday, evaluated just after midnight",
			record: &RateRecord{Code: "EUR", Rate: 1.1, LastUpdateDay: dayPtr(today.AddDate(0, 0, -1))},
			now:    today.Add(time.Second),
			want:   Stale,
		},
		{
			name:   "updated a month ago",
			record: &RateRecord{Code: "EUR", Rate: 1.1, LastUpdateDay: dayPtr(today.AddDate(0, -1, 0))},
			now:    today,
			want:   Stale,
		},
		{
			name:   "update day ahead of clock",
			record: &RateRecord{Code: "EUR", Rate: 1.1, LastUpdateDay: dayPtr(today.AddDate(0, 0, 1))},
			now:    today,
			want:   Fresh,
		},
		{
			name:   "local evening already past UTC midnight",
			record: &RateRecord{Code: "EUR", Rate: 1.1, LastUpdateDay: dayPtr(today)},
			now:    time.Date(2024, 3, 15, 22, 0, 0, 0, time.FixedZone("UTC-3", -3*3600)),
			want:   Stale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.record, tt.now))
			// deterministic for identical inputs
			assert.Equal(t, Evaluate(tt.record, tt.now), Evaluate(tt.record, tt.now))
		})
	}
}

func TestDay(t *testing.T) {
	in := time.Date(2024, 3, 15, 17, 42, 9, 123, time.FixedZone("UTC+5", 5*3600))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Day(in))

	late := time.Date(2024, 3, 15, 2, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), Day(late))
}

func TestFreshnessNeedsFetch(t *testing.T) {
	assert.False(t, Fresh.NeedsFetch())
	assert.True(t, Stale.NeedsFetch())
	assert.True(t, Missing.NeedsFetch())
	assert.Equal(t, "missing", Missing.String())
}

func TestRateRecordIsUnfetched(t *testing.T) {
	assert.True(t, (&RateRecord{Code: "USD"}).IsUnfetched())
	assert.False(t, (&RateRecord{Code: "USD", Rate: 0.0001}).IsUnfetched())
	assert.False(t, (&RateRecord{Code: "USD", LastUpdateDay: dayPtr(time.Now())}).IsUnfetched())
}
