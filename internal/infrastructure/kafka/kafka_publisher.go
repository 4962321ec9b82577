package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// DefaultKafkaPublisher пишет сообщения в один топик
type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(cfg config.Kafka) (*DefaultKafkaPublisher, error) {
	transport := &kafka.Transport{
		DialTimeout: 10 * time.Second,
	}

	mechanism, err := saslMechanism(cfg)
	if err != nil {
		return nil, err
	}
	if mechanism != nil {
		transport.SASL = mechanism
	}
	if cfg.TLSEnabled {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(net.JoinHostPort(cfg.Host, cfg.Port)),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
			Transport:    transport,
		},
	}, nil
}

func saslMechanism(cfg config.Kafka) (sasl.Mechanism, error) {
	switch strings.ToUpper(cfg.Mechanism) {
	case "":
		return nil, nil
	case "PLAIN":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported kafka sasl mechanism %q", cfg.Mechanism)
	}
}

func (k *DefaultKafkaPublisher) Publish(ctx context.Context, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}

	if err := k.writer.WriteMessages(ctx, km...); err != nil {
		return fmt.Errorf("failed to write %d messages: %w", len(km), err)
	}
	return nil
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
