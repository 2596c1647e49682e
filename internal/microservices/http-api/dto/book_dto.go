package dto

import "libraryhub/internal/microservices/http-api/models"

type BookResponse struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	CoverURL  string          `json:"cover_url,omitempty"`
	Total     int             `json:"total"`
	Available int             `json:"available"`
	Genres    []GenreResponse `json:"genres,omitempty"`
}

// FromModelToBookResponse flattens the inventory counters onto the book.
func FromModelToBookResponse(b models.Book) BookResponse {
	resp := BookResponse{
		ID:       b.ID,
		Title:    b.Title,
		Author:   b.Author,
		CoverURL: b.CoverURL,
	}
	if b.Inventory != nil {
		resp.Total = b.Inventory.Total
		resp.Available = b.Inventory.Available
	}
	for _, g := range b.Genres {
		resp.Genres = append(resp.Genres, GenreFromModel(g))
	}
	return resp
}
