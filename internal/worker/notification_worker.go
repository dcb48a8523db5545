package worker

import (
	"github.com/postroute/postal-service/internal/service"
)

// StartNotificationWorker registers the mail event handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
