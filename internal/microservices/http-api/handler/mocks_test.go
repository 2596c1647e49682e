package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libraryhub/internal/jobs"
	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLoanService mocks service.LoanService
type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) loan(args mock.Arguments) (*models.Loan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}

func (m *MockLoanService) Checkout(ctx context.Context, userID string) (*models.Loan, error) {
	return m.loan(m.Called(ctx, userID))
}

func (m *MockLoanService) Confirm(ctx context.Context, loanID int64) (*models.Loan, error) {
	return m.loan(m.Called(ctx, loanID))
}

func (m *MockLoanService) Cancel(ctx context.Context, actor service.Actor, loanID int64) (*models.Loan, error) {
	return m.loan(m.Called(ctx, actor, loanID))
}

func (m *MockLoanService) Return(ctx context.Context, loanID int64) (*models.Loan, error) {
	return m.loan(m.Called(ctx, loanID))
}

func (m *MockLoanService) Renew(ctx context.Context, actor service.Actor, loanID int64) (*models.Loan, error) {
	return m.loan(m.Called(ctx, actor, loanID))
}

func (m *MockLoanService) MarkLost(ctx context.Context, loanID int64) (*models.Loan, error) {
	return m.loan(m.Called(ctx, loanID))
}

func (m *MockLoanService) EscalateOverdue(ctx context.Context, loanID int64, today time.Time) (service.EscalationResult, error) {
	args := m.Called(ctx, loanID, today)
	return args.Get(0).(service.EscalationResult), args.Error(1)
}

func (m *MockLoanService) Get(ctx context.Context, actor service.Actor, loanID int64) (*models.Loan, error) {
	return m.loan(m.Called(ctx, actor, loanID))
}

func (m *MockLoanService) List(ctx context.Context, actor service.Actor, filter dto.LoanFilter) ([]models.Loan, int64, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Loan), args.Get(1).(int64), args.Error(2)
}

func (m *MockLoanService) PickupToken(ctx context.Context, actor service.Actor, loanID int64) (*dto.PickupTokenResponse, error) {
	args := m.Called(ctx, actor, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PickupTokenResponse), args.Error(1)
}

func (m *MockLoanService) Scan(ctx context.Context, token string) (*models.Loan, error) {
	return m.loan(m.Called(ctx, token))
}

// MockInvoiceService mocks service.InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) UpsertOverdue(ctx context.Context, loan *models.Loan, today time.Time) (*models.Invoice, bool, error) {
	args := m.Called(ctx, loan, today)
	return args.Get(0).(*models.Invoice), args.Bool(1), args.Error(2)
}

func (m *MockInvoiceService) MarkPaid(ctx context.Context, invoiceID int64, req dto.MarkPaidRequest) (*models.Invoice, *models.Transaction, error) {
	args := m.Called(ctx, invoiceID, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Get(1).(*models.Transaction), args.Error(2)
}

func (m *MockInvoiceService) StartPayment(ctx context.Context, actor service.Actor, invoiceID int64, req dto.StartPaymentRequest) (*models.Transaction, error) {
	args := m.Called(ctx, actor, invoiceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockInvoiceService) Void(ctx context.Context, invoiceID int64, note string) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, actor service.Actor, invoiceID int64) (*models.Invoice, error) {
	args := m.Called(ctx, actor, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, actor service.Actor, filter dto.InvoiceFilter) ([]models.Invoice, int64, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Invoice), args.Get(1).(int64), args.Error(2)
}

// MockAuthService mocks service.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(2) == nil {
		return "", "", nil, args.Error(3)
	}
	return args.String(0), args.String(1), args.Get(2).(*models.User), args.Error(3)
}

func (m *MockAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) Revoke(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockAuthService) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

// MockReportService mocks service.ReportService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) IssueActivation(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockAccountService) RequestActivation(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAccountService) Activate(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAccountService) RequestReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Payments(ctx context.Context, filter dto.ReportFilter) (*dto.PaymentReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaymentReport), args.Error(1)
}

type stubSweeper struct {
	res jobs.SweepResult
	err error
}

func (s stubSweeper) RunOnce(context.Context) (jobs.SweepResult, error) {
	return s.res, s.err
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser stands in for AuthMiddleware.
func asUser(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.RoleKey, role)
		c.Next()
	}
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
