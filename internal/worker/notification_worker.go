package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/service"
)

// StartNotificationWorker subscribes the notification dispatcher to lifecycle events.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification service unavailable; notifications disabled")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker registered")
}
