package service

import (
	"context"
	"strings"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

var ErrGenreExists = newError(KindConflict, "GENRE_EXISTS", "genre already exists")

type GenreService interface {
	Shelves(ctx context.Context) ([]models.GenreShelf, error)
	Create(ctx context.Context, name string) (*models.Genre, error)
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(r repository.GenreRepository) GenreService {
	return &genreService{repo: r}
}

func (s *genreService) Shelves(ctx context.Context) ([]models.GenreShelf, error) {
	return s.repo.Shelves(ctx)
}

// Create files a new genre. Names are unique regardless of surrounding spaces.
func (s *genreService) Create(ctx context.Context, name string) (*models.Genre, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, invalid("genre name required")
	}
	g := &models.Genre{Name: name}
	if err := s.repo.Create(ctx, g); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrGenreExists
		}
		return nil, err
	}
	return g, nil
}
