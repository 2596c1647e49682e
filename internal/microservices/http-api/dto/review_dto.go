package dto

import (
	"time"

	"libraryhub/internal/microservices/http-api/models"
)

// CreateReviewRequest for POST /reviews
type CreateReviewRequest struct {
	BookID  int64  `json:"book_id" binding:"required,gt=0"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// UpdateReviewRequest for PUT /reviews/:id
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ReviewResponse struct {
	ReviewID  int64     `json:"review_id"`
	BookID    int64     `json:"book_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromModelToReviewResponse(r *models.Review) ReviewResponse {
	resp := ReviewResponse{
		ReviewID:  r.ID,
		BookID:    r.BookID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		resp.UserName = r.User.DisplayName()
	}
	return resp
}

// BookReviewsResponse for GET /books/:id/reviews
type BookReviewsResponse struct {
	Data    []ReviewResponse `json:"data"`
	Average float64          `json:"average"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}
