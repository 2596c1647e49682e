package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository owns the per-book available/total counters.
type InventoryRepository interface {
	// LockForUpdate loads the rows for bookIDs with SELECT ... FOR UPDATE in
	// ascending book_id order. Must run inside a transaction.
	LockForUpdate(ctx context.Context, bookIDs []int64) ([]models.Inventory, error)
	Get(ctx context.Context, bookID int64) (*models.Inventory, error)
	UpdateCounts(ctx context.Context, inv *models.Inventory) error
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) LockForUpdate(ctx context.Context, bookIDs []int64) ([]models.Inventory, error) {
	var rows []models.Inventory
	if len(bookIDs) == 0 {
		return rows, nil
	}
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("book_id IN ?", bookIDs).
		Order("book_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lock inventory: %w", err)
	}
	return rows, nil
}

func (r *inventoryRepository) Get(ctx context.Context, bookID int64) (*models.Inventory, error) {
	var inv models.Inventory
	if err := conn(ctx, r.db).First(&inv, "book_id = ?", bookID).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inventoryRepository) UpdateCounts(ctx context.Context, inv *models.Inventory) error {
	result := conn(ctx, r.db).
		Model(&models.Inventory{}).
		Where("book_id = ?", inv.BookID).
		Updates(map[string]any{
			"total":     inv.Total,
			"available": inv.Available,
		})
	if result.Error != nil {
		return fmt.Errorf("update inventory %d: %w", inv.BookID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update inventory %d: %w", inv.BookID, gorm.ErrRecordNotFound)
	}
	return nil
}
