package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
)

// RatePublisher публикует события об обновлении курсов одним батчем
type RatePublisher struct {
	port   domain.PublisherPort
	logger *slog.Logger
	now    func() time.Time
}

func NewRatePublisher(port domain.PublisherPort, logger *slog.Logger) *RatePublisher {
	return &RatePublisher{
		port:   port,
		logger: logger,
		now:    time.Now,
	}
}

func (p *RatePublisher) PublishRateUpdates(ctx context.Context, updates []domain.RateUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	msgs := make([]domain.Message, 0, len(updates))
	now := p.now()
	for _, u := range updates {
		event := NewRateUpdatedEvent(u, now)
		v, err := json.Marshal(event)
		if err != nil {
			p.logger.Warn("failed to marshal rate event", "code", u.Code, "error", err)
			continue
		}
		msgs = append(msgs, domain.Message{Key: []byte(u.Code), Value: v})
	}

	if len(msgs) == 0 {
		return fmt.Errorf("no valid rate events to publish")
	}

	if err := p.port.Publish(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish rate events: %w", err)
	}

	p.logger.Debug("published rate events", "count", len(msgs))
	return nil
}
