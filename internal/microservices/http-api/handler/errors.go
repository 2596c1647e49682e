package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 5 * time.Second

var statusByKind = map[service.ErrorKind]int{
	service.KindValidation:   http.StatusBadRequest,
	service.KindUnauthorized: http.StatusUnauthorized,
	service.KindForbidden:    http.StatusForbidden,
	service.KindNotFound:     http.StatusNotFound,
	service.KindConflict:     http.StatusConflict,
	service.KindInternal:     http.StatusInternalServerError,
}

// respondError writes {"error", "reason"} with the status for err's kind.
// Untyped errors are logged and reported as 500 INTERNAL.
func respondError(c *gin.Context, err error) {
	typed, ok := service.AsError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Error("request_timeout", "path", c.FullPath(), "error", err)
		} else {
			slog.Error("request_failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": typed.Message, "reason": typed.Reason})
		return
	}
	status, found := statusByKind[typed.Kind]
	if !found {
		status = http.StatusInternalServerError
	}
	message := err.Error()
	if typed.Kind == service.KindInternal {
		slog.Error("request_failed", "path", c.FullPath(), "error", err)
		message = typed.Message
	}
	c.JSON(status, gin.H{"error": message, "reason": typed.Reason})
}

// badRequest reports a malformed body or query.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": service.ErrValidation.Reason})
}

// currentActor reads the caller set by middleware.AuthMiddleware.
func currentActor(c *gin.Context) (service.Actor, bool) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated", "reason": service.ErrUnauthorized.Reason})
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: c.GetString(middleware.RoleKey)}, true
}

// parseID reads a positive int64 path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "reason": service.ErrValidation.Reason})
		return 0, false
	}
	return id, true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// paginated writes the list envelope shared by every list endpoint.
func paginated(c *gin.Context, data any, total int64, p dto.Pagination) {
	_ = p.Normalize()
	totalPages := int64(0)
	if p.Limit > 0 {
		totalPages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"pagination": gin.H{
			"page":        p.Page,
			"limit":       p.Limit,
			"total":       total,
			"total_pages": totalPages,
			"has_next":    int64(p.Page) < totalPages,
		},
	})
}
