package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventMailDelivered, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventMailDelivered, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventMailStocked, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventMailDelivered, MailID: 1})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventMailRegistered}))
}
