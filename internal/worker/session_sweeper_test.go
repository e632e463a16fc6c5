package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/eventflow/internal/config"
	"github.com/spec-kit/eventflow/internal/events"
	"github.com/spec-kit/eventflow/internal/service"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) Sweep(time.Time) int {
	s.calls.Add(1)
	return 1
}

func TestRunSessionSweeperStopsOnCancel(t *testing.T) {
	sweeper := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunSessionSweeper(ctx, sweeper, 5*time.Millisecond, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSessionSweeperDisabled(t *testing.T) {
	sweeper := &countingSweeper{}
	RunSessionSweeper(context.Background(), sweeper, 0, nil)
	assert.Zero(t, sweeper.calls.Load())
}

func TestStartNotificationWorkerSubscribes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher()
	svc := service.NewNotificationService(dispatcher, logger, config.NotificationConfig{})

	StartNotificationWorker(svc, logger)
	StartNotificationWorker(nil, logger)

	err := dispatcher.Publish(context.Background(), events.New(events.EventTicketScanned, "t1", events.Actor{}, events.TicketScannedPayload{}))
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("activity notifications enabled").Len())
	assert.Equal(t, 1, logs.FilterMessage("TicketScanned").Len())
}
