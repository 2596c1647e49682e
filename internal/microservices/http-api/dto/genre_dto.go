package dto

import "libraryhub/internal/microservices/http-api/models"

// CreateGenreRequest for POST /admin/genres
type CreateGenreRequest struct {
	Name string `json:"name" binding:"required,max=191"`
}

type GenreResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	BookCount *int64 `json:"book_count,omitempty"`
}

func GenreFromModel(g models.Genre) GenreResponse {
	return GenreResponse{ID: g.ID, Name: g.Name}
}

func GenreFromShelf(s models.GenreShelf) GenreResponse {
	count := s.BookCount
	return GenreResponse{ID: s.ID, Name: s.Name, BookCount: &count}
}
