package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(UserIDKey),
			"role":    c.GetString(RoleKey),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("ValidateToken", "good").Return(&service.Claims{UserID: "u1", Email: "u1@example.com", Role: models.RoleAdmin}, nil)
	verifier.On("ValidateToken", "old").Return(nil, service.ErrExpiredToken)
	verifier.On("ValidateToken", "junk").Return(nil, service.ErrInvalidToken)

	r := setupRouter(AuthMiddleware(verifier))

	tests := []struct {
		name   string
		header string
		status int
		reason string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer old", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"invalid", "Bearer junk", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"valid", "Bearer good", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, body["reason"])
				return
			}
			assert.Equal(t, "u1", body["user_id"])
			assert.Equal(t, models.RoleAdmin, body["role"])
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set(RoleKey, role)
			}
			c.Next()
		}
	}

	for _, tt := range []struct {
		role   string
		status int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleUser, http.StatusForbidden},
		{"", http.StatusForbidden},
	} {
		r := setupRouter(withRole(tt.role), RequireAdmin())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, tt.status, w.Code, "role %q", tt.role)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := setupRouter(rl.Middleware())

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	}
	w := hit("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, w)["reason"])

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, hit("10.0.0.2").Code)

	// one token refills every 20s
	now = now.Add(21 * time.Second)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1").Code)
}
