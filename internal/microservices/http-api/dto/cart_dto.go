package dto

import "libraryhub/internal/microservices/http-api/models"

// AddCartItemRequest for POST /cart
type AddCartItemRequest struct {
	BookID   int64 `json:"book_id" binding:"required,gt=0"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

// SetCartItemRequest for PUT /cart; quantity 0 removes the line
type SetCartItemRequest struct {
	BookID   int64 `json:"book_id" binding:"required,gt=0"`
	Quantity int   `json:"quantity" binding:"min=0"`
}

type CartItemResponse struct {
	BookID    int64  `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	CoverURL  string `json:"cover_url,omitempty"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
}

func FromModelToCartItemResponse(item models.CartItem) CartItemResponse {
	resp := CartItemResponse{
		BookID:   item.BookID,
		Quantity: item.Quantity,
	}
	if item.Book != nil {
		resp.Title = item.Book.Title
		resp.Author = item.Book.Author
		resp.CoverURL = item.Book.CoverURL
		if item.Book.Inventory != nil {
			resp.Available = item.Book.Inventory.Available
		}
	}
	return resp
}
