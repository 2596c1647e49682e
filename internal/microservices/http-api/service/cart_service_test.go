package service

import (
	"context"
	"testing"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCart(t *testing.T) (CartService, *models.User, *models.Book) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewBookRepository(db), repository.NewInventoryRepository(db))
	return svc, testutil.SeedUser(t, db, models.RoleUser), testutil.SeedBook(t, db, "Persuasion", 3)
}

func TestCart_AddAccumulates(t *testing.T) {
	svc, u, book := newTestCart(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, u.ID, book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	item, err = svc.Add(ctx, u.ID, book.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	_, err = svc.Add(ctx, u.ID, book.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	items, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	require.NotNil(t, items[0].Book)
	assert.Equal(t, "Persuasion", items[0].Book.Title)
}

func TestCart_AddValidation(t *testing.T) {
	svc, u, _ := newTestCart(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, u.ID, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Add(ctx, u.ID, 1, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCart_SetAndRemove(t *testing.T) {
	svc, u, book := newTestCart(t)
	ctx := context.Background()

	_, err := svc.Set(ctx, u.ID, book.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound, "set only edits existing lines")

	_, err = svc.Add(ctx, u.ID, book.ID, 1)
	require.NoError(t, err)

	item, err := svc.Set(ctx, u.ID, book.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	_, err = svc.Set(ctx, u.ID, book.ID, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	item, err = svc.Set(ctx, u.ID, book.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)

	items, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.Add(ctx, u.ID, book.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, u.ID, book.ID))
	// removing a missing line is not an error
	require.NoError(t, svc.Remove(ctx, u.ID, book.ID))
}
