package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/middleware/auth"
	"libraryhub/internal/notify"
)

// AccountLinks configures activation and password-reset links.
type AccountLinks struct {
	BaseURL       string
	ActivationTTL time.Duration
	ResetTTL      time.Duration
}

// AccountService owns the single-use links sent to account holders.
type AccountService interface {
	// IssueActivation sends a fresh activation link to user.
	IssueActivation(ctx context.Context, user *models.User) error
	// RequestActivation re-sends the link; unknown or active accounts succeed silently.
	RequestActivation(ctx context.Context, email string) error
	Activate(ctx context.Context, token string) error
	// RequestReset sends a reset link; unknown emails succeed silently.
	RequestReset(ctx context.Context, email string) error
	// ResetPassword sets a new password and ends every session of the account.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type accountService struct {
	tx      repository.Transactor
	users   repository.UserRepository
	tokens  repository.UserTokenRepository
	refresh repository.RefreshTokenRepository
	sender  notify.Sender
	links   AccountLinks
	logger  *slog.Logger
	now     func() time.Time
}

func NewAccountService(
	tx repository.Transactor,
	users repository.UserRepository,
	tokens repository.UserTokenRepository,
	refresh repository.RefreshTokenRepository,
	sender notify.Sender,
	links AccountLinks,
	logger *slog.Logger,
) AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountService{
		tx:      tx,
		users:   users,
		tokens:  tokens,
		refresh: refresh,
		sender:  sender,
		links:   links,
		logger:  logger,
		now:     time.Now,
	}
}

func hashAccountToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newAccountToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate account token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *accountService) link(path, token string) string {
	return strings.TrimRight(s.links.BaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// issue stores a new token of kind for user and sends its link.
func (s *accountService) issue(ctx context.Context, user *models.User, kind string, ttl time.Duration) error {
	raw, err := newAccountToken()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.tokens.Create(ctx, &models.UserToken{
		TokenHash: hashAccountToken(raw),
		UserID:    user.ID,
		Type:      kind,
		Channel:   "email",
		ExpiresAt: now.Add(ttl),
	}); err != nil {
		return err
	}

	msg := notify.Message{UserID: user.ID, Recipient: user.Email}
	switch kind {
	case models.UserTokenActivation:
		msg.Type = models.NotifyAccountActivation
		msg.Subject = "Activate your library account"
		msg.Body = fmt.Sprintf("Hello %s, open %s to activate your account. The link expires in %s.",
			user.DisplayName(), s.link("/auth/activate", raw), ttl)
	default:
		msg.Type = models.NotifyPasswordReset
		msg.Subject = "Reset your library password"
		msg.Body = fmt.Sprintf("Hello %s, open %s to choose a new password. The link expires in %s.",
			user.DisplayName(), s.link("/auth/reset", raw), ttl)
	}
	if s.sender != nil && !s.sender.Deliver(ctx, msg) {
		s.logger.Warn("account_link_not_delivered", "user_id", user.ID, "type", kind)
	}
	s.logger.Info("account_link_issued", "user_id", user.ID, "type", kind)
	return nil
}

func (s *accountService) IssueActivation(ctx context.Context, user *models.User) error {
	return s.issue(ctx, user, models.UserTokenActivation, s.links.ActivationTTL)
}

func (s *accountService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email is required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *accountService) RequestActivation(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil || user == nil || user.IsActivated {
		return err
	}
	return s.IssueActivation(ctx, user)
}

func (s *accountService) RequestReset(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil || user == nil {
		return err
	}
	return s.issue(ctx, user, models.UserTokenReset, s.links.ResetTTL)
}

// consume burns a token of kind inside the current transaction.
func (s *accountService) consume(ctx context.Context, raw, kind string) (*models.UserToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrAccountLinkInvalid
	}
	token, err := s.tokens.Consume(ctx, hashAccountToken(raw), kind, s.now().UTC())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAccountLinkInvalid
		}
		return nil, err
	}
	return token, nil
}

func (s *accountService) Activate(ctx context.Context, raw string) error {
	var userID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.consume(ctx, raw, models.UserTokenActivation)
		if err != nil {
			return err
		}
		userID = token.UserID
		return s.users.Activate(ctx, token.UserID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("account_activated", "user_id", userID)
	return nil
}

func (s *accountService) ResetPassword(ctx context.Context, raw, newPassword string) error {
	hashed, err := auth.HashPassword(newPassword)
	if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
		return invalid("%s", err.Error())
	}
	if err != nil {
		return err
	}

	var userID string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.consume(ctx, raw, models.UserTokenReset)
		if err != nil {
			return err
		}
		userID = token.UserID
		if err := s.users.UpdatePassword(ctx, token.UserID, hashed); err != nil {
			return err
		}
		return s.refresh.RevokeAllForUser(ctx, token.UserID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("password_reset", "user_id", userID)
	return nil
}
