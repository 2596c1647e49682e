package service

import (
	"context"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryLedger_RequiresTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	book := testutil.SeedBook(t, db, "Dune", 2)
	ledger := NewInventoryLedger(repository.NewInventoryRepository(db))

	err := ledger.Reserve(context.Background(), []StockLine{{BookID: book.ID, Quantity: 1}})
	assert.ErrorIs(t, err, errLedgerOutsideTx)
	assert.Equal(t, 2, testutil.Inventory(t, db, book.ID).Available)
}

func TestInventoryLedger_ReserveIsAllOrNothing(t *testing.T) {
	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db, 5*time.Second)
	ledger := NewInventoryLedger(repository.NewInventoryRepository(db))
	plenty := testutil.SeedBook(t, db, "Plenty", 5)
	scarce := testutil.SeedBook(t, db, "Scarce", 1)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return ledger.Reserve(ctx, []StockLine{
			{BookID: plenty.ID, Quantity: 3},
			{BookID: scarce.ID, Quantity: 2},
		})
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, testutil.Inventory(t, db, plenty.ID).Available)
	assert.Equal(t, 1, testutil.Inventory(t, db, scarce.ID).Available)
}

func TestInventoryLedger_MergesDuplicateLines(t *testing.T) {
	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db, 5*time.Second)
	ledger := NewInventoryLedger(repository.NewInventoryRepository(db))
	book := testutil.SeedBook(t, db, "Emma", 3)

	// 2+2 exceeds 3 even though each line alone fits
	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return ledger.Reserve(ctx, []StockLine{{BookID: book.ID, Quantity: 2}, {BookID: book.ID, Quantity: 2}})
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	err = tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return ledger.Reserve(ctx, []StockLine{{BookID: book.ID, Quantity: 1}, {BookID: book.ID, Quantity: 2}})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.Inventory(t, db, book.ID).Available)
}

func TestInventoryLedger_UnknownBookAndBadQuantity(t *testing.T) {
	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db, 5*time.Second)
	ledger := NewInventoryLedger(repository.NewInventoryRepository(db))

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return ledger.Reserve(ctx, []StockLine{{BookID: 404, Quantity: 1}})
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	err = tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return ledger.Reserve(ctx, []StockLine{{BookID: 1, Quantity: 0}})
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInventoryLedger_ReleaseCapsAtTotal(t *testing.T) {
	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db, 5*time.Second)
	ledger := NewInventoryLedger(repository.NewInventoryRepository(db))
	book := testutil.SeedBook(t, db, "Ulysses", 2)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := ledger.Reserve(ctx, []StockLine{{BookID: book.ID, Quantity: 1}}); err != nil {
			return err
		}
		return ledger.Release(ctx, []StockLine{{BookID: book.ID, Quantity: 3}})
	})
	require.NoError(t, err)

	inv := testutil.Inventory(t, db, book.ID)
	assert.Equal(t, 2, inv.Total)
	assert.Equal(t, 2, inv.Available)
}

func TestInventoryLedger_Retire(t *testing.T) {
	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db, 5*time.Second)
	ledger := NewInventoryLedger(repository.NewInventoryRepository(db))
	book := testutil.SeedBook(t, db, "Beloved", 4)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := ledger.Reserve(ctx, []StockLine{{BookID: book.ID, Quantity: 3}}); err != nil {
			return err
		}
		return ledger.Retire(ctx, []StockLine{{BookID: book.ID, Quantity: 3}})
	})
	require.NoError(t, err)

	inv := testutil.Inventory(t, db, book.ID)
	assert.Equal(t, 1, inv.Total)
	assert.Equal(t, 1, inv.Available)
}

func TestInventoryLedger_RollbackOnLaterFailure(t *testing.T) {
	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db, 5*time.Second)
	ledger := NewInventoryLedger(repository.NewInventoryRepository(db))
	book := testutil.SeedBook(t, db, "Middlemarch", 2)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := ledger.Reserve(ctx, []StockLine{{BookID: book.ID, Quantity: 2}}); err != nil {
			return err
		}
		return ErrEmptyCart
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 2, testutil.Inventory(t, db, book.ID).Available)
}
