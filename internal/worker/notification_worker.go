package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/service"
)

// StartNotificationWorker subscribes the activity notifications to the
// dispatcher the shells publish to.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("activity notifications enabled")
	}
}
