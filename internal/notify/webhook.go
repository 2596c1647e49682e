package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"libraryhub/internal/microservices/http-api/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RecipientLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// WebhookSender posts messages to an email/SMS gateway.
type WebhookSender struct {
	url        string // e.g. http://mailer:8090/send
	users      RecipientLookup
	httpClient *http.Client
	logger     *slog.Logger
}

type webhookPayload struct {
	Recipient string    `json:"recipient"`
	Name      string    `json:"name,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	LoanID    *int64    `json:"loan_id,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

func NewWebhookSender(url string, users RecipientLookup, logger *slog.Logger) *WebhookSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookSender{
		url:   url,
		users: users,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (w *WebhookSender) Deliver(ctx context.Context, msg Message) bool {
	payload := webhookPayload{
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Type:      msg.Type,
		UserID:    msg.UserID,
		LoanID:    msg.LoanID,
		SentAt:    time.Now().UTC(),
	}
	if payload.Recipient == "" && w.users != nil && msg.UserID != "" {
		if u, err := w.users.FindByID(ctx, msg.UserID); err == nil {
			payload.Recipient = u.Email
			payload.Name = u.DisplayName()
		}
	}
	if payload.Recipient == "" {
		w.logger.Warn("webhook_notification_skipped", "user_id", msg.UserID, "reason", "no recipient")
		return false
	}

	if err := w.post(ctx, payload); err != nil {
		w.logger.Warn("webhook_notification_failed",
			"user_id", msg.UserID,
			"type", msg.Type,
			"error", err,
		)
		return false
	}
	return true
}

func (w *WebhookSender) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
