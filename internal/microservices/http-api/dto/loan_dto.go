package dto

import (
	"time"

	"libraryhub/internal/microservices/http-api/models"
)

type LoanItemResponse struct {
	LoanItemID int64  `json:"loan_item_id"`
	BookID     int64  `json:"book_id"`
	Title      string `json:"title,omitempty"`
	Quantity   int    `json:"quantity"`
}

type LoanResponse struct {
	LoanID     int64              `json:"loan_id"`
	UserID     string             `json:"user_id"`
	Code       string             `json:"code"`
	Status     models.LoanStatus  `json:"status"`
	BorrowAt   *time.Time         `json:"borrow_at,omitempty"`
	DueDate    string             `json:"due_date,omitempty"` // YYYY-MM-DD
	ReturnAt   *time.Time         `json:"return_at,omitempty"`
	RenewCount int                `json:"renew_count"`
	Items      []LoanItemResponse `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
}

func FromModelToLoanResponse(l *models.Loan) LoanResponse {
	resp := LoanResponse{
		LoanID:     l.ID,
		UserID:     l.UserID,
		Code:       l.Code,
		Status:     l.Status,
		BorrowAt:   l.BorrowAt,
		ReturnAt:   l.ReturnAt,
		RenewCount: l.RenewCount,
		Items:      make([]LoanItemResponse, 0, len(l.Items)),
		CreatedAt:  l.CreatedAt,
	}
	if l.DueDate != nil {
		resp.DueDate = l.DueDate.Format(dateLayout)
	}
	for _, it := range l.Items {
		item := LoanItemResponse{
			LoanItemID: it.ID,
			BookID:     it.BookID,
			Quantity:   it.Quantity,
		}
		if it.Book != nil {
			item.Title = it.Book.Title
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// PickupTokenResponse for GET /loans/:id/pickup-token
type PickupTokenResponse struct {
	LoanID    int64     `json:"loan_id"`
	Code      string    `json:"code"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ScanRequest for POST /admin/scan
type ScanRequest struct {
	Token string `json:"token" binding:"required"`
}
