package services

import (
	"sync"

	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/logger"

	"go.uber.org/zap"
)

// notificationBufferSize bounds the retained notification history
const notificationBufferSize = 50

// NotificationBuffer keeps the most recent mint notifications in memory for
// the notifications endpoint to drain, and mirrors each one to the log.
type NotificationBuffer struct {
	mutex         sync.Mutex
	notifications []models.Notification
	logger        *logger.Logger
}

// NewNotificationBuffer creates an empty notification buffer
func NewNotificationBuffer() *NotificationBuffer {
	return &NotificationBuffer{
		logger: logger.GetLogger(),
	}
}

// Notify appends a notification, evicting the oldest past the buffer size
func (b *NotificationBuffer) Notify(n models.Notification) {
	b.logger.Info("Notification",
		zap.String("level", n.Level),
		zap.String("message", n.Message),
		zap.String("card_id", n.CardID),
	)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.notifications = append(b.notifications, n)
	if len(b.notifications) > notificationBufferSize {
		b.notifications = b.notifications[len(b.notifications)-notificationBufferSize:]
	}
}

// Recent returns the retained notifications, newest last
func (b *NotificationBuffer) Recent() []models.Notification {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	out := make([]models.Notification, len(b.notifications))
	copy(out, b.notifications)
	return out
}
