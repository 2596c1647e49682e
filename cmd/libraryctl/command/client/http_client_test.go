package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"libraryhub/internal/microservices/http-api/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutSendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"loan_id":9,"code":"LN-0123456789ab","status":"pending","items":[{"book_id":3,"quantity":2}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	c.SetToken("tok")
	loan, err := c.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), loan.LoanID)
	assert.Equal(t, "LN-0123456789ab", loan.Code)
	require.Len(t, loan.Items, 1)
	assert.Equal(t, 2, loan.Items[0].Quantity)
}

func TestAPIErrorCarriesReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"not enough copies available","reason":"INSUFFICIENT_STOCK"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Checkout(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "INSUFFICIENT_STOCK", apiErr.Reason)
	assert.Contains(t, err.Error(), "not enough copies")
}

func TestAPIErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL).RemoveFromCart(context.Background(), 4)
	assert.EqualError(t, err, "request failed: Bad Gateway")
}

func TestMarkPaidAndReportQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/invoices/4/mark-paid":
			var body dto.MarkPaidRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "momo", body.Provider)
			w.Write([]byte(`{"invoice":{"invoice_id":4,"status":"paid"},"transaction":{"txn_id":1,"amount_vnd":30000,"provider":"momo"}}`))
		case "/admin/reports/payments":
			assert.Equal(t, "2026-04-01", r.URL.Query().Get("from"))
			assert.False(t, r.URL.Query().Has("provider"))
			w.Write([]byte(`{"rows":[{"provider":"cash","status":"succeeded","count":2,"total_vnd":40000}],"total_vnd":40000}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	paid, err := c.MarkPaid(context.Background(), 4, dto.MarkPaidRequest{Provider: "momo"})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), paid.Transaction.AmountVND)

	report, err := c.PaymentReport(context.Background(), "2026-04-01", "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), report.TotalVND)
	assert.Len(t, report.Rows, 1)
}

func TestAccountAndPaymentRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/activate":
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "a+b/c", r.URL.Query().Get("token"))
			w.Write([]byte(`{"message":"account activated"}`))
		case "/auth/reset":
			var body dto.ResetPasswordRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "new-password-1", body.NewPassword)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"link is invalid, expired or already used","reason":"ACCOUNT_LINK_INVALID"}`))
		case "/invoices/4/pay":
			var body dto.StartPaymentRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "vnpay", body.Provider)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"txn_id":12,"status":"pending","provider":"vnpay","amount_vnd":30000}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	require.NoError(t, c.Activate(context.Background(), "a+b/c"))

	err := c.ResetPassword(context.Background(), "used", "new-password-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ACCOUNT_LINK_INVALID", apiErr.Reason)

	txn, err := c.PayInvoice(context.Background(), 4, "vnpay")
	require.NoError(t, err)
	assert.Equal(t, "pending", txn.Status)
	assert.Equal(t, int64(12), txn.TxnID)
}
