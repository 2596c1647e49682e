package notify

import (
	"context"
	"log/slog"

	"libraryhub/internal/microservices/http-api/models"
)

type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// InAppSender writes the message to the user's notification inbox.
type InAppSender struct {
	store  NotificationStore
	logger *slog.Logger
}

func NewInAppSender(store NotificationStore, logger *slog.Logger) *InAppSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &InAppSender{store: store, logger: logger}
}

func (s *InAppSender) Deliver(ctx context.Context, msg Message) bool {
	if msg.UserID == "" {
		return false
	}
	n := &models.Notification{
		UserID:  msg.UserID,
		Type:    msg.Type,
		LoanID:  msg.LoanID,
		Title:   msg.Subject,
		Message: msg.Body,
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Warn("inapp_notification_failed",
			"user_id", msg.UserID,
			"type", msg.Type,
			"error", err,
		)
		return false
	}
	return true
}
