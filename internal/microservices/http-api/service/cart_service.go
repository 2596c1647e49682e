package service

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

// CartService manages the per-user staging list. Stock checks here are
// advisory reads without locks; checkout re-validates under lock.
type CartService interface {
	Add(ctx context.Context, userID string, bookID int64, qty int) (*models.CartItem, error)
	// Set replaces the quantity; qty 0 removes the line.
	Set(ctx context.Context, userID string, bookID int64, qty int) (*models.CartItem, error)
	Remove(ctx context.Context, userID string, bookID int64) error
	List(ctx context.Context, userID string) ([]models.CartItem, error)
}

type cartService struct {
	carts     repository.CartRepository
	books     repository.BookRepository
	inventory repository.InventoryRepository
}

func NewCartService(
	carts repository.CartRepository,
	books repository.BookRepository,
	inventory repository.InventoryRepository,
) CartService {
	return &cartService{carts: carts, books: books, inventory: inventory}
}

func (s *cartService) available(ctx context.Context, bookID int64) (int, error) {
	exists, err := s.books.Exists(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
	}
	inv, err := s.inventory.Get(ctx, bookID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return inv.Available, nil
}

func (s *cartService) Add(ctx context.Context, userID string, bookID int64, qty int) (*models.CartItem, error) {
	if qty <= 0 {
		return nil, invalid("quantity must be positive")
	}
	available, err := s.available(ctx, bookID)
	if err != nil {
		return nil, err
	}

	existing := 0
	if item, err := s.carts.Get(ctx, userID, bookID); err == nil {
		existing = item.Quantity
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	if existing+qty > available {
		return nil, fmt.Errorf("%w: book %d has %d available, cart would hold %d",
			ErrInsufficientStock, bookID, available, existing+qty)
	}

	item := &models.CartItem{UserID: userID, BookID: bookID, Quantity: existing + qty}
	if err := s.carts.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) Set(ctx context.Context, userID string, bookID int64, qty int) (*models.CartItem, error) {
	if qty < 0 {
		return nil, invalid("quantity must not be negative")
	}
	if _, err := s.carts.Get(ctx, userID, bookID); err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: book %d is not in the cart", ErrNotFound, bookID)
		}
		return nil, err
	}
	if qty == 0 {
		if _, err := s.carts.Remove(ctx, userID, bookID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	available, err := s.available(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if qty > available {
		return nil, fmt.Errorf("%w: book %d has %d available", ErrInsufficientStock, bookID, available)
	}

	item := &models.CartItem{UserID: userID, BookID: bookID, Quantity: qty}
	if err := s.carts.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) Remove(ctx context.Context, userID string, bookID int64) error {
	_, err := s.carts.Remove(ctx, userID, bookID)
	return err
}

func (s *cartService) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	return s.carts.ListWithBooks(ctx, userID)
}
