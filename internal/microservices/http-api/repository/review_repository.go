package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	GetByUserAndBook(ctx context.Context, userID string, bookID int64) (*models.Review, error)
	ListVisibleByBook(ctx context.Context, bookID int64, page dto.Pagination) ([]models.Review, int64, error)
	AverageRating(ctx context.Context, bookID int64) (float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := conn(ctx, r.db).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	if err := conn(ctx, r.db).
		Model(review).
		Select("rating", "comment", "updated_at").
		Updates(review).Error; err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&models.Review{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	if err := conn(ctx, r.db).Preload("User").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByUserAndBook(ctx context.Context, userID string, bookID int64) (*models.Review, error) {
	var review models.Review
	if err := conn(ctx, r.db).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListVisibleByBook(ctx context.Context, bookID int64, page dto.Pagination) ([]models.Review, int64, error) {
	var list []models.Review
	var total int64

	query := conn(ctx, r.db).
		Model(&models.Review{}).
		Where("book_id = ? AND status = ?", bookID, models.ReviewVisible).
		Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	if err := query.
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return list, total, nil
}

// AverageRating over visible reviews, 0 when there are none.
func (r *reviewRepository) AverageRating(ctx context.Context, bookID int64) (float64, error) {
	var avg struct {
		Average float64
	}
	if err := conn(ctx, r.db).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) as average").
		Where("book_id = ? AND status = ?", bookID, models.ReviewVisible).
		Scan(&avg).Error; err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	return avg.Average, nil
}
