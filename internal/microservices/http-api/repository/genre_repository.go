package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type GenreRepository interface {
	// Shelves lists every genre with its title count, empty genres included.
	Shelves(ctx context.Context) ([]models.GenreShelf, error)
	Create(ctx context.Context, g *models.Genre) error
}

type genreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) Shelves(ctx context.Context) ([]models.GenreShelf, error) {
	var list []models.GenreShelf
	err := conn(ctx, r.db).
		Table("genres").
		Select("genres.id, genres.name, COUNT(book_genres.book_id) AS book_count").
		Joins("LEFT JOIN book_genres ON book_genres.genre_id = genres.id").
		Group("genres.id, genres.name").
		Order("genres.name ASC").
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list genre shelves: %w", err)
	}
	return list, nil
}

func (r *genreRepository) Create(ctx context.Context, g *models.Genre) error {
	if err := conn(ctx, r.db).Create(g).Error; err != nil {
		return fmt.Errorf("create genre: %w", err)
	}
	return nil
}
