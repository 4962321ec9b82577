package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPort struct {
	mock.Mock
}

func (m *mockPort) Publish(ctx context.Context, msgs ...domain.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishRateUpdates(t *testing.T) {
	port := new(mockPort)
	pub := NewRatePublisher(port, discardLogger())
	fixed := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	var captured []domain.Message
	port.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).([]domain.Message) }).
		Return(nil).Once()

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	err := pub.PublishRateUpdates(context.Background(), []domain.RateUpdate{
		{CycleID: "c1", Code: "EUR", Rate: 0.92, Day: day},
		{CycleID: "c1", Code: "GBP", Rate: 0.79, Day: day},
	})
	require.NoError(t, err)
	port.AssertExpectations(t)

	require.Len(t, captured, 2)
	assert.Equal(t, []byte("EUR"), captured[0].Key)

	var event RateUpdatedEvent
	require.NoError(t, json.Unmarshal(captured[0].Value, &event))
	assert.Equal(t, "c1", event.CycleID)
	assert.Equal(t, "EUR", event.Code)
	assert.Equal(t, 0.92, event.Rate)
	assert.Equal(t, "2024-03-15", event.Day)
	assert.True(t, event.OccurredAt.Equal(fixed))
	assert.NotEmpty(t, event.EventID)
}

func TestPublishRateUpdatesEmpty(t *testing.T) {
	port := new(mockPort)
	pub := NewRatePublisher(port, discardLogger())

	require.NoError(t, pub.PublishRateUpdates(context.Background(), nil))
	port.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPublishRateUpdatesPortError(t *testing.T) {
	port := new(mockPort)
	pub := NewRatePublisher(port, discardLogger())
	broker := errors.New("broker down")
	port.On("Publish", mock.Anything, mock.Anything).Return(broker)

	err := pub.PublishRateUpdates(context.Background(), []domain.RateUpdate{{Code: "EUR", Rate: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, broker)
}

func TestEventIDsAreUnique(t *testing.T) {
	u := domain.RateUpdate{Code: "EUR", Rate: 1, Day: time.Now()}
	a := NewRateUpdatedEvent(u, time.Now())
	b := NewRateUpdatedEvent(u, time.Now())
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestSASLMechanism(t *testing.T) {
	m, err := saslMechanism(config.Kafka{})
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = saslMechanism(config.Kafka{Mechanism: "plain", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", m.Name())

	m, err = saslMechanism(config.Kafka{Mechanism: "SCRAM-SHA-512", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-512", m.Name())

	_, err = saslMechanism(config.Kafka{Mechanism: "GSSAPI"})
	assert.Error(t, err)
}
