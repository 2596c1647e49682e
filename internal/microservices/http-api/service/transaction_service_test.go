package service

import (
	"context"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Settle(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.SeedUser(t, db, models.RoleUser)
	svc := NewTransactionService(repository.NewTransactor(db, 5*time.Second),
		repository.NewTransactionRepository(db), repository.NewInvoiceRepository(db), discardLogger()).(*transactionService)
	paidAt := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return paidAt }
	ctx := context.Background()

	pending := func(provider string) *models.Transaction {
		txn := &models.Transaction{
			UserID:    u.ID,
			LoanID:    1,
			Type:      models.TxTypeOverdueFee,
			Status:    models.TxPending,
			Currency:  "VND",
			AmountVND: 20000,
			Provider:  provider,
		}
		require.NoError(t, db.Create(txn).Error)
		return txn
	}

	ok := pending("vnpay")
	settled, err := svc.Settle(ctx, ok.ID, models.TxSucceeded)
	require.NoError(t, err)
	assert.Equal(t, models.TxSucceeded, settled.Status)
	require.NotNil(t, settled.PaidAt)
	assert.True(t, settled.PaidAt.Equal(paidAt))

	_, err = svc.Settle(ctx, ok.ID, models.TxFailed)
	assert.ErrorIs(t, err, ErrTransactionNotPending)

	bad := pending("zalopay")
	failed, err := svc.Settle(ctx, bad.ID, models.TxFailed)
	require.NoError(t, err)
	assert.Equal(t, models.TxFailed, failed.Status)
	assert.Nil(t, failed.PaidAt)

	_, err = svc.Settle(ctx, pending("cash").ID, models.TxPending)
	assert.ErrorIs(t, err, ErrInvalidTransactionMove)
	_, err = svc.Settle(ctx, 9999, models.TxSucceeded)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_ListScopedToCaller(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedUser(t, db, models.RoleUser)
	b := testutil.SeedUser(t, db, models.RoleUser)
	svc := NewTransactionService(repository.NewTransactor(db, time.Second), repository.NewTransactionRepository(db), repository.NewInvoiceRepository(db), discardLogger())
	ctx := context.Background()

	for _, row := range []struct {
		user     string
		provider string
	}{{a.ID, "cash"}, {a.ID, "momo"}, {b.ID, "cash"}} {
		require.NoError(t, db.Create(&models.Transaction{
			UserID: row.user, LoanID: 1, Type: models.TxTypePayment, Status: models.TxSucceeded,
			Currency: "VND", AmountVND: 10000, Provider: row.provider,
		}).Error)
	}

	_, total, err := svc.List(ctx, Actor{UserID: a.ID, Role: models.RoleUser}, dto.TransactionFilter{UserID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	list, total, err := svc.List(ctx, Actor{Role: models.RoleAdmin}, dto.TransactionFilter{Provider: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, txn := range list {
		assert.Equal(t, "cash", txn.Provider)
	}

	_, _, err = svc.List(ctx, Actor{Role: models.RoleAdmin}, dto.TransactionFilter{Provider: "paypal"})
	assert.ErrorIs(t, err, ErrValidation)
}
