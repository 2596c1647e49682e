package service

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

type BookService interface {
	Search(ctx context.Context, filter dto.BookFilter) ([]models.Book, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Book, error)
}

type bookService struct {
	repo repository.BookRepository
}

func NewBookService(repo repository.BookRepository) BookService {
	return &bookService{repo: repo}
}

func (s *bookService) Search(ctx context.Context, filter dto.BookFilter) ([]models.Book, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, invalid("%v", err)
	}
	return s.repo.Search(ctx, filter)
}

func (s *bookService) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: book %d", ErrNotFound, id)
		}
		return nil, err
	}
	return b, nil
}
