package repository

import (
	"context"
	"fmt"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// ReportRepository runs read-only aggregate queries outside gorm.
type ReportRepository interface {
	PaymentSummary(ctx context.Context, filter dto.ReportFilter) ([]dto.PaymentSummaryRow, error)
}

type reportRepository struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewReportRepository builds queries for dialect ("postgres" or "sqlite3").
func NewReportRepository(db *sqlx.DB, dialect string) ReportRepository {
	return &reportRepository{db: db, dialect: goqu.Dialect(dialect)}
}

func (r *reportRepository) PaymentSummary(ctx context.Context, filter dto.ReportFilter) ([]dto.PaymentSummaryRow, error) {
	stmt := r.dialect.
		From(models.Transaction{}.TableName()).
		Prepared(true).
		Select(
			goqu.C("provider"),
			goqu.C("status"),
			goqu.COUNT(goqu.Star()).As("txn_count"),
			goqu.COALESCE(goqu.SUM("amount_vnd"), 0).As("total_vnd"),
		).
		Where(goqu.C("type").Eq(models.TxTypePayment)).
		GroupBy("provider", "status").
		Order(goqu.C("provider").Asc(), goqu.C("status").Asc())

	if filter.Provider != "" {
		stmt = stmt.Where(goqu.C("provider").Eq(filter.Provider))
	}
	if filter.FromTime != nil {
		stmt = stmt.Where(goqu.C("created_at").Gte(*filter.FromTime))
	}
	if filter.ToTime != nil {
		stmt = stmt.Where(goqu.C("created_at").Lt(*filter.ToTime))
	}

	query, args, err := stmt.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build payment summary: %w", err)
	}

	rows := make([]dto.PaymentSummaryRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("payment summary: %w", err)
	}
	return rows, nil
}
