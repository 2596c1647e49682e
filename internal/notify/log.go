package notify

import (
	"context"
	"log/slog"
)

// LogSender writes the whole message to the log. It stands in for a mail
// gateway in development so account links can still be followed.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Deliver(ctx context.Context, msg Message) bool {
	if msg.Recipient == "" && msg.UserID == "" {
		return false
	}
	s.logger.InfoContext(ctx, "notification_logged",
		"recipient", msg.Recipient,
		"user_id", msg.UserID,
		"type", msg.Type,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return true
}
