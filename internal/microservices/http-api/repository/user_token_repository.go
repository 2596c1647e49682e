package repository

import (
	"context"
	"fmt"
	"time"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserTokenRepository interface {
	Create(ctx context.Context, token *models.UserToken) error
	// Consume marks an unexpired, unused token of kind as used and returns it.
	// A token that is unknown, expired or already used reports gorm.ErrRecordNotFound.
	Consume(ctx context.Context, tokenHash, kind string, now time.Time) (*models.UserToken, error)
}

type userTokenRepository struct {
	db *gorm.DB
}

func NewUserTokenRepository(db *gorm.DB) UserTokenRepository {
	return &userTokenRepository{db: db}
}

func (r *userTokenRepository) Create(ctx context.Context, token *models.UserToken) error {
	if err := conn(ctx, r.db).Create(token).Error; err != nil {
		return fmt.Errorf("create user token: %w", err)
	}
	return nil
}

func (r *userTokenRepository) Consume(ctx context.Context, tokenHash, kind string, now time.Time) (*models.UserToken, error) {
	db := conn(ctx, r.db)
	var token models.UserToken
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_hash = ? AND type = ? AND consumed_at IS NULL AND expires_at > ?", tokenHash, kind, now).
		First(&token).Error; err != nil {
		return nil, err
	}

	result := db.Model(&models.UserToken{}).
		Where("token_hash = ? AND consumed_at IS NULL", tokenHash).
		Update("consumed_at", now)
	if result.Error != nil {
		return nil, fmt.Errorf("consume user token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	token.ConsumedAt = &now
	return &token, nil
}
