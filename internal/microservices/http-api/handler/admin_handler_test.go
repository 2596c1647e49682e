package handler

import (
	"net/http"
	"testing"

	"libraryhub/internal/jobs"
	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func adminRouter(loans service.LoanService, reports service.ReportService, sweeper OverdueRunner) *gin.Engine {
	r := setupRouter()
	h := NewAdminHandler(loans, reports, sweeper,
		NewInvoiceHandler(new(MockInvoiceService)), NewTransactionHandler(nil))
	h.RegisterRoutes(r.Group("/admin", asUser("staff-1", models.RoleAdmin)))
	return r
}

func TestScan(t *testing.T) {
	loans := new(MockLoanService)
	loans.On("Scan", mock.Anything, "good").Return(sampleLoan(models.LoanPending), nil)
	loans.On("Scan", mock.Anything, "bad").Return(nil, service.ErrTokenInvalid)
	r := adminRouter(loans, nil, nil)

	w := perform(r, http.MethodPost, "/admin/scan", dto.ScanRequest{Token: "good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), decodeBody(t, w)["loan_id"])

	w = perform(r, http.MethodPost, "/admin/scan", dto.ScanRequest{Token: "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TOKEN_INVALID", decodeBody(t, w)["reason"])

	w = perform(r, http.MethodPost, "/admin/scan", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	loans.AssertExpectations(t)
}

func TestRunOverdue(t *testing.T) {
	r := adminRouter(nil, nil, stubSweeper{res: jobs.SweepResult{Date: "2026-05-20", Candidates: 2, Escalated: 1, Invoiced: 1, Skipped: 1}})

	w := perform(r, http.MethodPost, "/admin/jobs/run-overdue", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "2026-05-20", body["date"])
	assert.Equal(t, float64(1), body["escalated"])
	assert.Equal(t, false, body["lock_held"])

	r = adminRouter(nil, nil, stubSweeper{err: assert.AnError})
	w = perform(r, http.MethodPost, "/admin/jobs/run-overdue", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPaymentReport(t *testing.T) {
	reports := new(MockReportService)
	reports.On("Payments", mock.Anything, mock.MatchedBy(func(f dto.ReportFilter) bool {
		return f.From == "2026-04-01" && f.To == "2026-04-30" && f.Provider == "cash"
	})).Return(&dto.PaymentReport{
		From: "2026-04-01", To: "2026-04-30", Provider: "cash",
		Rows:     []dto.PaymentSummaryRow{{Provider: "cash", Status: models.TxSucceeded, Count: 2, TotalVND: 40000}},
		TotalVND: 40000,
	}, nil)
	reports.On("Payments", mock.Anything, mock.MatchedBy(func(f dto.ReportFilter) bool {
		return f.From == "nope"
	})).Return(nil, service.ErrValidation)
	r := adminRouter(nil, reports, nil)

	w := perform(r, http.MethodGet, "/admin/reports/payments?from=2026-04-01&to=2026-04-30&provider=cash", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(40000), body["total_vnd"])
	assert.Len(t, body["rows"], 1)

	w = perform(r, http.MethodGet, "/admin/reports/payments?from=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	reports.AssertExpectations(t)
}
