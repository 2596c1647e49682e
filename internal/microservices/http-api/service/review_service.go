package service

import (
	"context"
	"fmt"
	"strings"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

type ReviewService interface {
	Create(ctx context.Context, userID string, req dto.CreateReviewRequest) (*models.Review, error)
	Update(ctx context.Context, actor Actor, reviewID int64, req dto.UpdateReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, actor Actor, reviewID int64) error
	ListForBook(ctx context.Context, bookID int64, page dto.Pagination) (*dto.BookReviewsResponse, error)
}

type reviewService struct {
	reviews repository.ReviewRepository
	books   repository.BookRepository
	loans   repository.LoanRepository
}

func NewReviewService(
	reviews repository.ReviewRepository,
	books repository.BookRepository,
	loans repository.LoanRepository,
) ReviewService {
	return &reviewService{reviews: reviews, books: books, loans: loans}
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}

// Create requires the user to have borrowed the book at least once.
func (s *reviewService) Create(ctx context.Context, userID string, req dto.CreateReviewRequest) (*models.Review, error) {
	if !validRating(req.Rating) {
		return nil, invalid("rating must be between 1 and 5")
	}
	exists, err := s.books.Exists(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: book %d", ErrNotFound, req.BookID)
	}

	borrowed, err := s.loans.HasBorrowedBook(ctx, userID, req.BookID)
	if err != nil {
		return nil, err
	}
	if !borrowed {
		return nil, ErrReviewNotAllowed
	}

	if _, err := s.reviews.GetByUserAndBook(ctx, userID, req.BookID); err == nil {
		return nil, ErrReviewExists
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	review := &models.Review{
		UserID:  userID,
		BookID:  req.BookID,
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
		Status:  models.ReviewVisible,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrReviewExists
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) owned(ctx context.Context, actor Actor, reviewID int64) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
		}
		return nil, err
	}
	if !actor.CanAccess(review.UserID) {
		return nil, ErrForbidden
	}
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, actor Actor, reviewID int64, req dto.UpdateReviewRequest) (*models.Review, error) {
	if !validRating(req.Rating) {
		return nil, invalid("rating must be between 1 and 5")
	}
	review, err := s.owned(ctx, actor, reviewID)
	if err != nil {
		return nil, err
	}
	review.Rating = req.Rating
	review.Comment = strings.TrimSpace(req.Comment)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, actor Actor, reviewID int64) error {
	if _, err := s.owned(ctx, actor, reviewID); err != nil {
		return err
	}
	return s.reviews.Delete(ctx, reviewID)
}

func (s *reviewService) ListForBook(ctx context.Context, bookID int64, page dto.Pagination) (*dto.BookReviewsResponse, error) {
	if err := page.Normalize(); err != nil {
		return nil, invalid("%v", err)
	}
	exists, err := s.books.Exists(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
	}

	reviews, total, err := s.reviews.ListVisibleByBook(ctx, bookID, page)
	if err != nil {
		return nil, err
	}
	avg, err := s.reviews.AverageRating(ctx, bookID)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		data = append(data, dto.FromModelToReviewResponse(&reviews[i]))
	}
	return &dto.BookReviewsResponse{
		Data:    data,
		Average: avg,
		Total:   total,
		Page:    page.Page,
		Limit:   page.Limit,
	}, nil
}
