package repository

import (
	"context"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository_PaymentSummary(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.SeedUser(t, db, models.RoleUser)

	seed := []struct {
		provider string
		status   string
		txType   string
		amount   int64
		at       time.Time
	}{
		{"cash", models.TxSucceeded, models.TxTypePayment, 30000, testutil.Date(2026, 4, 1).Add(9 * time.Hour)},
		{"cash", models.TxSucceeded, models.TxTypePayment, 10000, testutil.Date(2026, 4, 2).Add(9 * time.Hour)},
		{"momo", models.TxSucceeded, models.TxTypePayment, 50000, testutil.Date(2026, 4, 2).Add(10 * time.Hour)},
		{"momo", models.TxFailed, models.TxTypePayment, 50000, testutil.Date(2026, 4, 2).Add(11 * time.Hour)},
		// charges are not payments
		{"cash", models.TxPending, models.TxTypeOverdueFee, 90000, testutil.Date(2026, 4, 2).Add(12 * time.Hour)},
		{"vnpay", models.TxSucceeded, models.TxTypePayment, 70000, testutil.Date(2026, 4, 5).Add(9 * time.Hour)},
	}
	for _, s := range seed {
		require.NoError(t, db.Create(&models.Transaction{
			UserID: u.ID, LoanID: 1, Type: s.txType, Status: s.status,
			Currency: "VND", AmountVND: s.amount, Provider: s.provider, CreatedAt: s.at,
		}).Error)
	}

	repo := NewReportRepository(testutil.SQLX(t, db), DialectSQLite)
	ctx := context.Background()

	t.Run("all payments", func(t *testing.T) {
		rows, err := repo.PaymentSummary(ctx, dto.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, []dto.PaymentSummaryRow{
			{Provider: "cash", Status: models.TxSucceeded, Count: 2, TotalVND: 40000},
			{Provider: "momo", Status: models.TxFailed, Count: 1, TotalVND: 50000},
			{Provider: "momo", Status: models.TxSucceeded, Count: 1, TotalVND: 50000},
			{Provider: "vnpay", Status: models.TxSucceeded, Count: 1, TotalVND: 70000},
		}, rows)
	})

	t.Run("by provider", func(t *testing.T) {
		rows, err := repo.PaymentSummary(ctx, dto.ReportFilter{Provider: "momo"})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("date range is inclusive of the last day", func(t *testing.T) {
		f := dto.ReportFilter{DateRange: dto.DateRange{From: "2026-04-02", To: "2026-04-02"}}
		require.NoError(t, f.Validate())
		rows, err := repo.PaymentSummary(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, []dto.PaymentSummaryRow{
			{Provider: "cash", Status: models.TxSucceeded, Count: 1, TotalVND: 10000},
			{Provider: "momo", Status: models.TxFailed, Count: 1, TotalVND: 50000},
			{Provider: "momo", Status: models.TxSucceeded, Count: 1, TotalVND: 50000},
		}, rows)
	})

	t.Run("empty window", func(t *testing.T) {
		f := dto.ReportFilter{DateRange: dto.DateRange{From: "2027-01-01"}}
		require.NoError(t, f.Validate())
		rows, err := repo.PaymentSummary(ctx, f)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}
