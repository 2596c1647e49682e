package handler

import (
	"net/http"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func invoiceRouter(svc service.InvoiceService, userID, role string) *gin.Engine {
	r := setupRouter()
	NewInvoiceHandler(svc).RegisterRoutes(r.Group("/invoices", asUser(userID, role)), middleware.RequireAdmin())
	return r
}

func paidPair(provider string) (*models.Invoice, *models.Transaction) {
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	id := int64(4)
	inv := &models.Invoice{ID: id, UserID: "reader-1", LoanID: 7, Type: models.InvoiceTypeOverdue,
		Status: models.InvoicePaid, DaysOverdue: 3, AmountVND: 30000, PaidAt: &now}
	txn := &models.Transaction{ID: 11, UserID: "reader-1", LoanID: 7, InvoiceID: &id, Type: models.TxTypePayment,
		Status: models.TxSucceeded, Currency: "VND", AmountVND: 30000, Provider: provider, PaidAt: &now}
	return inv, txn
}

func TestMarkPaid_EmptyBodyDefaults(t *testing.T) {
	svc := new(MockInvoiceService)
	inv, txn := paidPair("cash")
	svc.On("MarkPaid", mock.Anything, int64(4), dto.MarkPaidRequest{}).Return(inv, txn, nil)

	w := perform(invoiceRouter(svc, "staff-1", models.RoleAdmin), http.MethodPost, "/invoices/4/mark-paid", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "paid", body["invoice"].(map[string]any)["status"])
	ledger := body["transaction"].(map[string]any)
	assert.Equal(t, "payment", ledger["type"])
	assert.Equal(t, float64(30000), ledger["amount_vnd"])
	svc.AssertExpectations(t)
}

func TestMarkPaid_WithProvider(t *testing.T) {
	svc := new(MockInvoiceService)
	inv, txn := paidPair("momo")
	req := dto.MarkPaidRequest{Provider: "momo", TxRef: "MOMO-1"}
	svc.On("MarkPaid", mock.Anything, int64(4), req).Return(inv, txn, nil)

	w := perform(invoiceRouter(svc, "staff-1", models.RoleAdmin), http.MethodPost, "/invoices/4/mark-paid", req)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestMarkPaid_Errors(t *testing.T) {
	svc := new(MockInvoiceService)
	svc.On("MarkPaid", mock.Anything, int64(4), mock.Anything).Return(nil, nil, service.ErrInvoiceAlreadyPaid)
	svc.On("MarkPaid", mock.Anything, int64(5), mock.Anything).Return(nil, nil, service.ErrInvalidProvider)
	r := invoiceRouter(svc, "staff-1", models.RoleAdmin)

	w := perform(r, http.MethodPost, "/invoices/4/mark-paid", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVOICE_ALREADY_PAID", decodeBody(t, w)["reason"])

	w = perform(r, http.MethodPost, "/invoices/5/mark-paid", dto.MarkPaidRequest{Provider: "paypal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PROVIDER", decodeBody(t, w)["reason"])
}

func TestMarkPaid_ReaderForbidden(t *testing.T) {
	svc := new(MockInvoiceService)
	w := perform(invoiceRouter(svc, "reader-1", models.RoleUser), http.MethodPost, "/invoices/4/mark-paid", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.Calls)
}

func TestVoidInvoice(t *testing.T) {
	svc := new(MockInvoiceService)
	svc.On("Void", mock.Anything, int64(4), "waived").Return(&models.Invoice{ID: 4, Status: models.InvoiceVoid, Note: "waived"}, nil)
	svc.On("Void", mock.Anything, int64(5), "").Return(nil, service.ErrInvoiceNotVoidable)
	r := invoiceRouter(svc, "staff-1", models.RoleAdmin)

	w := perform(r, http.MethodPost, "/invoices/4/void", dto.VoidRequest{Note: "waived"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "void", decodeBody(t, w)["status"])

	w = perform(r, http.MethodPost, "/invoices/5/void", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertExpectations(t)
}

func TestGetInvoice_Forbidden(t *testing.T) {
	svc := new(MockInvoiceService)
	svc.On("Get", mock.Anything, service.Actor{UserID: "reader-2", Role: models.RoleUser}, int64(4)).Return(nil, service.ErrForbidden)

	w := perform(invoiceRouter(svc, "reader-2", models.RoleUser), http.MethodGet, "/invoices/4", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeBody(t, w)["reason"])
}

func TestListInvoices(t *testing.T) {
	svc := new(MockInvoiceService)
	inv, _ := paidPair("cash")
	svc.On("List", mock.Anything, service.Actor{UserID: "reader-1", Role: models.RoleUser}, mock.Anything).
		Return([]models.Invoice{*inv}, int64(1), nil)

	w := perform(invoiceRouter(svc, "reader-1", models.RoleUser), http.MethodGet, "/invoices", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, false, body["pagination"].(map[string]any)["has_next"])
}

func TestStartPayment(t *testing.T) {
	svc := new(MockInvoiceService)
	id := int64(4)
	reader := service.Actor{UserID: "reader-1", Role: models.RoleUser}
	pending := &models.Transaction{ID: 12, UserID: "reader-1", LoanID: 7, InvoiceID: &id, Type: models.TxTypePayment,
		Status: models.TxPending, Currency: "VND", AmountVND: 30000, Provider: "vnpay", TxRef: "VNPAY-4-1"}
	svc.On("StartPayment", mock.Anything, reader, int64(4), dto.StartPaymentRequest{Provider: "vnpay"}).Return(pending, nil)
	svc.On("StartPayment", mock.Anything, reader, int64(4), dto.StartPaymentRequest{Provider: "cash"}).Return(nil, service.ErrInvalidProvider)
	r := invoiceRouter(svc, "reader-1", models.RoleUser)

	w := perform(r, http.MethodPost, "/invoices/4/pay", dto.StartPaymentRequest{Provider: "vnpay"})
	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "VNPAY-4-1", body["tx_ref"])
	assert.NotContains(t, body, "paid_at")

	w = perform(r, http.MethodPost, "/invoices/4/pay", dto.StartPaymentRequest{Provider: "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PROVIDER", decodeBody(t, w)["reason"])

	w = perform(r, http.MethodPost, "/invoices/4/pay", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "StartPayment", 2)
}
