package domain

import (
	"context"
	"time"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, msgs ...Message) error
}

// RateUpdate describes one code applied by a sync cycle.
type RateUpdate struct {
	CycleID string
	Code    string
	Rate    float64
	Day     time.Time
}

type RateEventPublisher interface {
	PublishRateUpdates(ctx context.Context, updates []RateUpdate) error
}
