package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"libraryhub/internal/microservices/http-api/models"
)

// Typed query filters. Handlers bind query strings into these structs and
// every filter is validated before a repository translates it into SQL.

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	dateLayout   = "2006-01-02"
)

var ErrInvalidFilter = errors.New("invalid filter")

type Pagination struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize applies defaults and rejects out-of-range values.
func (p *Pagination) Normalize() error {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidFilter)
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidFilter, MaxLimit)
	}
	return nil
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// DateRange is an inclusive [from, to] pair of calendar days.
type DateRange struct {
	From string `form:"from"`
	To   string `form:"to"`

	FromTime *time.Time `form:"-" json:"-"`
	ToTime   *time.Time `form:"-" json:"-"` // exclusive upper bound: start of the day after To
}

func (d *DateRange) parse() error {
	d.FromTime, d.ToTime = nil, nil
	if d.From != "" {
		t, err := time.Parse(dateLayout, d.From)
		if err != nil {
			return fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidFilter)
		}
		d.FromTime = &t
	}
	if d.To != "" {
		t, err := time.Parse(dateLayout, d.To)
		if err != nil {
			return fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidFilter)
		}
		t = t.AddDate(0, 0, 1)
		d.ToTime = &t
	}
	if d.FromTime != nil && d.ToTime != nil && !d.FromTime.Before(*d.ToTime) {
		return fmt.Errorf("%w: from must not be after to", ErrInvalidFilter)
	}
	return nil
}

// LoanFilter: GET /loans. UserID is only honoured for admins.
type LoanFilter struct {
	Status string `form:"status"`
	UserID string `form:"user_id"`
	Pagination
}

func (f *LoanFilter) Validate() error {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status != "" && !models.LoanStatus(f.Status).Valid() {
		return fmt.Errorf("%w: unknown loan status %q", ErrInvalidFilter, f.Status)
	}
	return f.Pagination.Normalize()
}

// InvoiceFilter: GET /invoices and GET /admin/invoices.
type InvoiceFilter struct {
	Status string `form:"status"`
	UserID string `form:"user_id"`
	LoanID int64  `form:"loan_id"`
	Pagination
}

func (f *InvoiceFilter) Validate() error {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status != "" && !models.InvoiceStatus(f.Status).Valid() {
		return fmt.Errorf("%w: unknown invoice status %q", ErrInvalidFilter, f.Status)
	}
	if f.LoanID < 0 {
		return fmt.Errorf("%w: loan_id must be positive", ErrInvalidFilter)
	}
	return f.Pagination.Normalize()
}

// TransactionFilter: GET /transactions and GET /admin/transactions.
type TransactionFilter struct {
	UserID    string `form:"user_id"`
	InvoiceID int64  `form:"invoice_id"`
	Provider  string `form:"provider"`
	Status    string `form:"status"`
	Type      string `form:"type"`
	DateRange
	Pagination
}

func (f *TransactionFilter) Validate() error {
	f.Provider = strings.ToLower(strings.TrimSpace(f.Provider))
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	if f.Provider != "" && !models.ValidProvider(f.Provider) {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidFilter, f.Provider)
	}
	switch f.Status {
	case "", models.TxPending, models.TxSucceeded, models.TxFailed:
	default:
		return fmt.Errorf("%w: unknown transaction status %q", ErrInvalidFilter, f.Status)
	}
	switch f.Type {
	case "", models.TxTypeOverdueFee, models.TxTypeDamageFee, models.TxTypeLostFee, models.TxTypePayment:
	default:
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidFilter, f.Type)
	}
	if f.InvoiceID < 0 {
		return fmt.Errorf("%w: invoice_id must be positive", ErrInvalidFilter)
	}
	if err := f.DateRange.parse(); err != nil {
		return err
	}
	return f.Pagination.Normalize()
}

// BookFilter: GET /books.
type BookFilter struct {
	Search  string `form:"q"`
	GenreID int64  `form:"genre_id"`
	InStock bool   `form:"in_stock"`
	Pagination
}

func (f *BookFilter) Validate() error {
	f.Search = strings.TrimSpace(f.Search)
	if len(f.Search) > 200 {
		return fmt.Errorf("%w: q is too long", ErrInvalidFilter)
	}
	if f.GenreID < 0 {
		return fmt.Errorf("%w: genre_id must be positive", ErrInvalidFilter)
	}
	return f.Pagination.Normalize()
}

// ReportFilter: GET /admin/reports/payments.
type ReportFilter struct {
	Provider string `form:"provider"`
	DateRange
}

func (f *ReportFilter) Validate() error {
	f.Provider = strings.ToLower(strings.TrimSpace(f.Provider))
	if f.Provider != "" && !models.ValidProvider(f.Provider) {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidFilter, f.Provider)
	}
	return f.DateRange.parse()
}
