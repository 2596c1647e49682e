package repository

import (
	"context"
	"fmt"
	"strings"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type BookRepository interface {
	// Create inserts the book and its inventory row with available == total.
	Create(ctx context.Context, book *models.Book, total int) error
	GetByID(ctx context.Context, id int64) (*models.Book, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, filter dto.BookFilter) ([]models.Book, int64, error)
	AddGenres(ctx context.Context, bookID int64, genreIDs []int64) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book, total int) error {
	book.Inventory = &models.Inventory{Total: total, Available: total}
	if err := conn(ctx, r.db).Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	if err := conn(ctx, r.db).Preload("Inventory").Preload("Genres").First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check book: %w", err)
	}
	return count > 0, nil
}

// Search splits the query into tokens and requires every token to appear in
// the title or the author, case-insensitively.
// Example: "old man sea" -> (title LIKE '%old%' OR author LIKE '%old%') AND ...
func (r *bookRepository) Search(ctx context.Context, filter dto.BookFilter) ([]models.Book, int64, error) {
	var list []models.Book
	var total int64

	query := conn(ctx, r.db).Model(&models.Book{})
	for _, t := range strings.Fields(strings.ToLower(filter.Search)) {
		p := "%" + t + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(COALESCE(author,'')) LIKE ?)", p, p)
	}
	if filter.GenreID > 0 {
		query = query.Where("EXISTS (SELECT 1 FROM book_genres bg WHERE bg.book_id = books.id AND bg.genre_id = ?)", filter.GenreID)
	}
	if filter.InStock {
		query = query.Where("EXISTS (SELECT 1 FROM inventory i WHERE i.book_id = books.id AND i.available > 0)")
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	if err := query.
		Preload("Inventory").
		Preload("Genres").
		Order("title ASC").Order("id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	return list, total, nil
}

func (r *bookRepository) AddGenres(ctx context.Context, bookID int64, genreIDs []int64) error {
	if len(genreIDs) == 0 {
		return nil
	}
	db := conn(ctx, r.db)
	var b models.Book
	if err := db.First(&b, bookID).Error; err != nil {
		return fmt.Errorf("book not found: %w", err)
	}
	genres := make([]models.Genre, 0, len(genreIDs))
	for _, id := range genreIDs {
		genres = append(genres, models.Genre{ID: id})
	}
	if err := db.Model(&b).Association("Genres").Append(&genres); err != nil {
		return fmt.Errorf("append genres: %w", err)
	}
	return nil
}
