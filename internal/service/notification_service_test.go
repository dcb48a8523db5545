package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/observability"
)

type publishedMessage struct {
	topic      string
	key, value []byte
}

type fakePublisher struct {
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{topic: topic, key: key, value: value})
	return nil
}

func TestNotificationsForwardCommittedTransitions(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &fakePublisher{}
	core, logs := observer.New(zap.InfoLevel)
	NewNotificationService(NotificationDependencies{
		Dispatcher: dispatcher,
		Logger:     zap.New(core),
		Metrics:    observability.NewMetrics(),
		Publisher:  publisher,
		Topic:      "mail-events",
	}).RegisterHandlers()

	mail := NewMailService(MailDependencies{Store: w.store, Dispatcher: dispatcher})
	item, err := mail.Create(ctx, actorAt("olga", w.central, nil), CreateMailInput{
		PersonFrom: "A", PersonTo: "B", AddressTo: "C", DestinationBranchID: w.north.ID,
	})
	require.NoError(t, err)
	_, err = mail.Stock(ctx, actorAt("sam", w.central, nil), item.ID, "A-1")
	require.NoError(t, err)

	require.Len(t, publisher.messages, 2)
	msg := publisher.messages[1]
	assert.Equal(t, "mail-events", msg.topic)
	assert.Equal(t, strconv.FormatInt(item.ID, 10), string(msg.key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.value, &decoded))
	assert.Equal(t, string(events.EventMailStocked), decoded["type"])

	assert.Equal(t, 2, logs.FilterMessage("mail transition").Len())
}

func TestNotificationFailureDoesNotUndoTransition(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(NotificationDependencies{
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Publisher:  &fakePublisher{err: errors.New("broker down")},
		Topic:      "mail-events",
	}).RegisterHandlers()

	mail := NewMailService(MailDependencies{Store: w.store, Dispatcher: dispatcher})
	item, err := mail.Create(ctx, actorAt("olga", w.central, nil), CreateMailInput{
		PersonFrom: "A", PersonTo: "B", AddressTo: "C", DestinationBranchID: w.north.ID,
	})
	require.NoError(t, err)

	stored, err := mail.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.State, stored.State)
}
