package kafka

import (
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/google/uuid"
)

type RateUpdatedEvent struct {
	EventID    string    `json:"event_id"`
	CycleID    string    `json:"cycle_id"`
	Code       string    `json:"code"`
	Rate       float64   `json:"rate"`
	Day        string    `json:"day"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewRateUpdatedEvent(u domain.RateUpdate, now time.Time) RateUpdatedEvent {
	return RateUpdatedEvent{
		EventID:    uuid.NewString(),
		CycleID:    u.CycleID,
		Code:       u.Code,
		Rate:       u.Rate,
		Day:        domain.Day(u.Day).Format(time.DateOnly),
		OccurredAt: now.UTC(),
	}
}
