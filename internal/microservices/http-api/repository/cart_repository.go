package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Get(ctx context.Context, userID string, bookID int64) (*models.CartItem, error)
	Upsert(ctx context.Context, item *models.CartItem) error
	Remove(ctx context.Context, userID string, bookID int64) (bool, error)
	List(ctx context.Context, userID string) ([]models.CartItem, error)
	// ListForUpdate locks the user's cart rows for the rest of the transaction.
	ListForUpdate(ctx context.Context, userID string) ([]models.CartItem, error)
	ListWithBooks(ctx context.Context, userID string) ([]models.CartItem, error)
	// Clear deletes the user's cart and reports how many lines it removed.
	Clear(ctx context.Context, userID string) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Get(ctx context.Context, userID string, bookID int64) (*models.CartItem, error) {
	var item models.CartItem
	if err := conn(ctx, r.db).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) Upsert(ctx context.Context, item *models.CartItem) error {
	if err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(item).Error; err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) Remove(ctx context.Context, userID string, bookID int64) (bool, error) {
	result := conn(ctx, r.db).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return false, fmt.Errorf("remove from cart: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *cartRepository) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("book_id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

func (r *cartRepository) ListForUpdate(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("book_id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	return items, nil
}

func (r *cartRepository) ListWithBooks(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := conn(ctx, r.db).
		Preload("Book").
		Preload("Book.Inventory").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

func (r *cartRepository) Clear(ctx context.Context, userID string) (int64, error) {
	result := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("clear cart: %w", result.Error)
	}
	return result.RowsAffected, nil
}
