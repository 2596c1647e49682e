package handler

import (
	"context"
	"net/http"
	"time"

	"libraryhub/internal/jobs"
	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// sweeps can touch many loans, give them longer than a normal request
const sweepTimeout = 2 * time.Minute

// OverdueRunner triggers the overdue sweep on demand.
type OverdueRunner interface {
	RunOnce(ctx context.Context) (jobs.SweepResult, error)
}

type AdminHandler struct {
	loans        service.LoanService
	reports      service.ReportService
	sweeper      OverdueRunner
	invoices     *InvoiceHandler
	transactions *TransactionHandler
}

func NewAdminHandler(
	loans service.LoanService,
	reports service.ReportService,
	sweeper OverdueRunner,
	invoices *InvoiceHandler,
	transactions *TransactionHandler,
) *AdminHandler {
	return &AdminHandler{
		loans:        loans,
		reports:      reports,
		sweeper:      sweeper,
		invoices:     invoices,
		transactions: transactions,
	}
}

// RegisterRoutes mounts the staff endpoints. rg must already require the admin role.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scan", h.Scan)
	rg.POST("/jobs/run-overdue", h.RunOverdue)
	rg.GET("/reports/payments", h.PaymentReport)

	rg.GET("/invoices", h.invoices.List)
	rg.GET("/transactions", h.transactions.List)
	rg.POST("/transactions/:id/settle", h.transactions.Settle)
}

// Scan resolves a pickup token to the loan manifest.
func (h *AdminHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	loan, err := h.loans.Scan(ctx, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}

func (h *AdminHandler) RunOverdue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sweepTimeout)
	defer cancel()

	res, err := h.sweeper.RunOnce(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PaymentReport handles GET /admin/reports/payments?from=&to=&provider=
func (h *AdminHandler) PaymentReport(c *gin.Context) {
	var filter dto.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := h.reports.Payments(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
