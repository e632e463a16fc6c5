package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/config"
	"github.com/spec-kit/eventflow/internal/events"
)

// NotificationService records shell activity per notification channel. It
// logs what each channel would carry and delivers nothing.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventEventCreated, n.handleEventCreated)
	n.dispatcher.Subscribe(events.EventRegistrationCreated, n.handleRegistrationCreated)
	n.dispatcher.Subscribe(events.EventTicketIssued, n.handleTicketIssued)
	n.dispatcher.Subscribe(events.EventTicketScanned, n.handleTicketScanned)
}

func (n *NotificationService) handleEventCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("EventCreated", zap.String("event_id", event.SubjectID), zap.String("actor", event.Actor.Username), zap.Any("payload", event.Payload))
	n.recordWebhookActivity(ctx, event)
	return nil
}

func (n *NotificationService) handleRegistrationCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("RegistrationCreated", zap.String("registration_id", event.SubjectID), zap.String("actor", event.Actor.Username), zap.Any("payload", event.Payload))
	n.recordEmailActivity(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketIssued(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketIssued", zap.String("ticket_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.recordEmailActivity(ctx, event)
	n.recordWebhookActivity(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketScanned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketScanned", zap.String("ticket_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.recordWebhookActivity(ctx, event)
	return nil
}

// recordEmailActivity logs the email a configured sender would receive.
// Nothing is delivered; there is no mail transport yet.
func (n *NotificationService) recordEmailActivity(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email activity recorded",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

// recordWebhookActivity logs the webhook call a configured endpoint would
// receive. No HTTP request is made.
func (n *NotificationService) recordWebhookActivity(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook activity recorded",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
