package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository is append-only: the only mutation is a status change
// out of pending.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Transaction, error)
	// SetStatusFromPending moves a pending row to status. updated is false when
	// the row was not pending.
	SetStatusFromPending(ctx context.Context, id int64, status string, fields map[string]any) (updated bool, err error)
	List(ctx context.Context, filter dto.TransactionFilter) ([]models.Transaction, int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if err := conn(ctx, r.db).Create(txn).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	if err := conn(ctx, r.db).First(&txn, "txn_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) GetForUpdate(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&txn, "txn_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) SetStatusFromPending(ctx context.Context, id int64, status string, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": status}
	for k, v := range fields {
		updates[k] = v
	}
	result := conn(ctx, r.db).
		Model(&models.Transaction{}).
		Where("txn_id = ? AND status = ?", id, models.TxPending).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("settle transaction %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *transactionRepository) List(ctx context.Context, filter dto.TransactionFilter) ([]models.Transaction, int64, error) {
	var list []models.Transaction
	var total int64

	query := conn(ctx, r.db).Model(&models.Transaction{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.InvoiceID > 0 {
		query = query.Where("invoice_id = ?", filter.InvoiceID)
	}
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.FromTime != nil {
		query = query.Where("created_at >= ?", *filter.FromTime)
	}
	if filter.ToTime != nil {
		query = query.Where("created_at < ?", *filter.ToTime)
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	if err := query.
		Order("created_at DESC").Order("txn_id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return list, total, nil
}
