package client

// http_client.go talks to the libraryhub REST API on behalf of the CLI.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"libraryhub/internal/jobs"
	"libraryhub/internal/microservices/http-api/dto"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is a non-2xx answer; Reason is the server's machine-readable code.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("request failed: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
}

// Page is the list envelope returned by every paginated endpoint.
type Page[T any] struct {
	Data       []T `json:"data"`
	Pagination struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int64 `json:"total_pages"`
		HasNext    bool  `json:"has_next"`
	} `json:"pagination"`
}

// defines the HTTP client structure and methods
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// do sends body as JSON and decodes a 2xx response into out when out is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Reason = payload.Reason
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Auth

func (c *HTTPClient) Register(ctx context.Context, request *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var result dto.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Login(ctx context.Context, request *dto.LoginRequest) (*dto.AuthResponse, error) {
	var result dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Revoke(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/revoke", dto.RefreshTokenRequest{RefreshToken: refreshToken}, nil)
}

func (c *HTTPClient) Activate(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/auth/activate?token="+url.QueryEscape(token), nil, nil)
}

func (c *HTTPClient) ResendActivation(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-activation", dto.EmailRequest{Email: email}, nil)
}

func (c *HTTPClient) RequestReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/request-reset", dto.EmailRequest{Email: email}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset", dto.ResetPasswordRequest{Token: token, NewPassword: newPassword}, nil)
}

// Catalog

func (c *HTTPClient) SearchBooks(ctx context.Context, query string, inStock bool, page, limit int) (*Page[dto.BookResponse], error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if inStock {
		q.Set("in_stock", "true")
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var result Page[dto.BookResponse]
	if err := c.do(ctx, http.MethodGet, "/books?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Cart

func (c *HTTPClient) Cart(ctx context.Context) ([]dto.CartItemResponse, error) {
	var result struct {
		Items []dto.CartItemResponse `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (c *HTTPClient) AddToCart(ctx context.Context, bookID int64, qty int) (*dto.CartItemResponse, error) {
	var result dto.CartItemResponse
	if err := c.do(ctx, http.MethodPost, "/cart", dto.AddCartItemRequest{BookID: bookID, Quantity: qty}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) SetCartItem(ctx context.Context, bookID int64, qty int) error {
	return c.do(ctx, http.MethodPut, "/cart", dto.SetCartItemRequest{BookID: bookID, Quantity: qty}, nil)
}

func (c *HTTPClient) RemoveFromCart(ctx context.Context, bookID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", bookID), nil, nil)
}

// Loans

func (c *HTTPClient) Checkout(ctx context.Context) (*dto.LoanResponse, error) {
	return c.loan(ctx, http.MethodPost, "/checkout", nil)
}

func (c *HTTPClient) Loans(ctx context.Context, status string, page, limit int) (*Page[dto.LoanResponse], error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var result Page[dto.LoanResponse]
	if err := c.do(ctx, http.MethodGet, "/loans?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Loan(ctx context.Context, id int64) (*dto.LoanResponse, error) {
	return c.loan(ctx, http.MethodGet, fmt.Sprintf("/loans/%d", id), nil)
}

// LoanAction posts one state-machine transition: cancel, renew, confirm, return or lost.
func (c *HTTPClient) LoanAction(ctx context.Context, id int64, action string) (*dto.LoanResponse, error) {
	return c.loan(ctx, http.MethodPost, fmt.Sprintf("/loans/%d/%s", id, action), nil)
}

func (c *HTTPClient) PickupToken(ctx context.Context, id int64) (*dto.PickupTokenResponse, error) {
	var result dto.PickupTokenResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/loans/%d/pickup-token", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Scan(ctx context.Context, token string) (*dto.LoanResponse, error) {
	return c.loan(ctx, http.MethodPost, "/admin/scan", dto.ScanRequest{Token: token})
}

func (c *HTTPClient) loan(ctx context.Context, method, path string, body any) (*dto.LoanResponse, error) {
	var result dto.LoanResponse
	if err := c.do(ctx, method, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Invoices and jobs

func (c *HTTPClient) Invoices(ctx context.Context, admin bool, status string) (*Page[dto.InvoiceResponse], error) {
	path := "/invoices"
	if admin {
		path = "/admin/invoices"
	}
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}

	var result Page[dto.InvoiceResponse]
	if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) MarkPaid(ctx context.Context, id int64, request dto.MarkPaidRequest) (*dto.MarkPaidResponse, error) {
	var result dto.MarkPaidResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/invoices/%d/mark-paid", id), request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PayInvoice opens a pending online payment for one of the caller's invoices.
func (c *HTTPClient) PayInvoice(ctx context.Context, id int64, provider string) (*dto.TransactionResponse, error) {
	var result dto.TransactionResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/invoices/%d/pay", id), dto.StartPaymentRequest{Provider: provider}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) VoidInvoice(ctx context.Context, id int64, note string) (*dto.InvoiceResponse, error) {
	var result dto.InvoiceResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/invoices/%d/void", id), dto.VoidRequest{Note: note}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RunOverdue(ctx context.Context) (*jobs.SweepResult, error) {
	var result jobs.SweepResult
	if err := c.do(ctx, http.MethodPost, "/admin/jobs/run-overdue", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) PaymentReport(ctx context.Context, from, to, provider string) (*dto.PaymentReport, error) {
	q := url.Values{}
	for k, v := range map[string]string{"from": from, "to": to, "provider": provider} {
		if v != "" {
			q.Set(k, v)
		}
	}

	var result dto.PaymentReport
	if err := c.do(ctx, http.MethodGet, "/admin/reports/payments?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
