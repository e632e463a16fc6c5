package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/eventflow/internal/config"
	"github.com/spec-kit/eventflow/internal/events"
)

func TestNotificationServiceHandlesActivity(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/eventflow",
	})
	svc.RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventTicketIssued, "t1", events.Actor{Username: "admin"}, nil)))

	messages := make([]string, 0, logs.Len())
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{"TicketIssued", "email activity recorded", "webhook activity recorded"}, messages)
	assert.Equal(t, "noreply@example.com", logs.All()[1].ContextMap()["from"])
	assert.Equal(t, "https://hooks.example.com/eventflow", logs.All()[2].ContextMap()["url"])
}

func TestNotificationServiceSkipsUnconfiguredChannels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{}).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventRegistrationCreated, "r1", events.Actor{}, nil)))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "RegistrationCreated", logs.All()[0].Message)
	assert.Equal(t, "r1", logs.All()[0].ContextMap()["registration_id"])
}
