package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	// CreateIfAbsent inserts inv unless an invoice with the same (loan_id, type)
	// exists. created is false when the row was already there.
	CreateIfAbsent(ctx context.Context, inv *models.Invoice) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	GetByLoanAndType(ctx context.Context, loanID int64, invoiceType string) (*models.Invoice, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Invoice, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	List(ctx context.Context, filter dto.InvoiceFilter) ([]models.Invoice, int64, error)
	// HasUnpaid reports whether the user owes an unpaid invoice; empty invoiceType matches any.
	HasUnpaid(ctx context.Context, userID, invoiceType string) (bool, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) CreateIfAbsent(ctx context.Context, inv *models.Invoice) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "loan_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(inv)
	if result.Error != nil {
		return false, fmt.Errorf("create invoice: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := conn(ctx, r.db).First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) GetByLoanAndType(ctx context.Context, loanID int64, invoiceType string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := conn(ctx, r.db).
		Where("loan_id = ? AND type = ?", loanID, invoiceType).
		First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	result := conn(ctx, r.db).Model(&models.Invoice{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update invoice %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update invoice %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter dto.InvoiceFilter) ([]models.Invoice, int64, error) {
	var list []models.Invoice
	var total int64

	query := conn(ctx, r.db).Model(&models.Invoice{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LoanID > 0 {
		query = query.Where("loan_id = ?", filter.LoanID)
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return list, total, nil
}

func (r *invoiceRepository) HasUnpaid(ctx context.Context, userID, invoiceType string) (bool, error) {
	var count int64
	query := conn(ctx, r.db).
		Model(&models.Invoice{}).
		Where("user_id = ? AND status = ?", userID, models.InvoiceUnpaid)
	if invoiceType != "" {
		query = query.Where("type = ?", invoiceType)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check unpaid invoices: %w", err)
	}
	return count > 0, nil
}
