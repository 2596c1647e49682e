package repository

import (
	"context"
	"fmt"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository stores loans and their item manifests. Loans are never deleted.
type LoanRepository interface {
	// Create inserts the loan together with its Items.
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id int64) (*models.Loan, error)
	// GetForUpdate locks the loan row and loads its items. Must run inside a transaction.
	GetForUpdate(ctx context.Context, id int64) (*models.Loan, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	List(ctx context.Context, filter dto.LoanFilter) ([]models.Loan, int64, error)
	// ListOverdueCandidateIDs returns active loans whose due date is before today.
	ListOverdueCandidateIDs(ctx context.Context, today time.Time) ([]int64, error)
	// ListBorrowedDueBetween returns borrowed loans with from <= due_date <= to.
	ListBorrowedDueBetween(ctx context.Context, from, to time.Time) ([]models.Loan, error)
	ListByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error)
	HasBorrowedBook(ctx context.Context, userID string, bookID int64) (bool, error)
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if err := conn(ctx, r.db).Create(loan).Error; err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, id int64) (*models.Loan, error) {
	var loan models.Loan
	if err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("book_id ASC") }).
		Preload("Items.Book").
		First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) GetForUpdate(ctx context.Context, id int64) (*models.Loan, error) {
	db := conn(ctx, r.db)
	var loan models.Loan
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loan, id).Error; err != nil {
		return nil, err
	}
	// items are immutable once written, no lock needed
	if err := db.Where("loan_id = ?", id).Order("book_id ASC").Find(&loan.Items).Error; err != nil {
		return nil, fmt.Errorf("load loan items: %w", err)
	}
	return &loan, nil
}

func (r *loanRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	result := conn(ctx, r.db).Model(&models.Loan{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update loan %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update loan %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *loanRepository) List(ctx context.Context, filter dto.LoanFilter) ([]models.Loan, int64, error) {
	var list []models.Loan
	var total int64

	query := conn(ctx, r.db).Model(&models.Loan{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}
	if err := query.
		Preload("Items").
		Order("created_at DESC").Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}
	return list, total, nil
}

func (r *loanRepository) ListOverdueCandidateIDs(ctx context.Context, today time.Time) ([]int64, error) {
	var ids []int64
	if err := conn(ctx, r.db).
		Model(&models.Loan{}).
		Where("status IN ?", []models.LoanStatus{models.LoanBorrowed, models.LoanOverdue}).
		Where("due_date < ?", today).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list overdue candidates: %w", err)
	}
	return ids, nil
}

func (r *loanRepository) ListBorrowedDueBetween(ctx context.Context, from, to time.Time) ([]models.Loan, error) {
	var list []models.Loan
	if err := conn(ctx, r.db).
		Preload("User").
		Where("status = ?", models.LoanBorrowed).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Order("due_date ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list loans due between: %w", err)
	}
	return list, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error) {
	var list []models.Loan
	if err := conn(ctx, r.db).
		Preload("User").
		Where("status = ?", status).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list loans by status: %w", err)
	}
	return list, nil
}

func (r *loanRepository) HasBorrowedBook(ctx context.Context, userID string, bookID int64) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&models.LoanItem{}).
		Joins("JOIN loans ON loans.id = loan_items.loan_id").
		Where("loans.user_id = ? AND loan_items.book_id = ?", userID, bookID).
		Where("loans.status IN ?", []models.LoanStatus{models.LoanBorrowed, models.LoanOverdue, models.LoanReturned}).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check borrowed book: %w", err)
	}
	return count > 0, nil
}
