package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubExpirer struct {
	mu    sync.Mutex
	ages  []time.Duration
	err   error
	calls chan struct{}
}

func (s *stubExpirer) ExpireOlderThan(_ context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	s.ages = append(s.ages, maxAge)
	s.mu.Unlock()
	select {
	case s.calls <- struct{}{}:
	default:
	}
	return s.err
}

func TestRetentionWorkerRunsUntilCancelled(t *testing.T) {
	expirer := &stubExpirer{calls: make(chan struct{}, 8)}
	w := NewRetentionWorker(expirer, 48*time.Hour, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for range 3 {
		select {
		case <-expirer.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("retention run did not happen")
		}
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	expirer.mu.Lock()
	defer expirer.mu.Unlock()
	assert.GreaterOrEqual(t, len(expirer.ages), 3)
	assert.Equal(t, 48*time.Hour, expirer.ages[0])
}

func TestRetentionWorkerLogsFailures(t *testing.T) {
	expirer := &stubExpirer{err: errors.New("db down"), calls: make(chan struct{}, 1)}
	core, logs := observer.New(zap.ErrorLevel)
	w := NewRetentionWorker(expirer, time.Hour, time.Hour, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	<-expirer.calls
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1, logs.FilterMessage("failed to expire activities").Len())
}
