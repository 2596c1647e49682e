package handler

import (
	"context"
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type LoanHandler struct {
	svc service.LoanService
}

func NewLoanHandler(svc service.LoanService) *LoanHandler {
	return &LoanHandler{svc: svc}
}

// RegisterRoutes mounts /checkout and /loans on an authenticated group.
// Staff transitions additionally pass through requireAdmin.
func (h *LoanHandler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	rg.POST("/checkout", h.Checkout)

	loans := rg.Group("/loans")
	loans.GET("", h.List)
	loans.GET("/:id", h.Get)
	loans.POST("/:id/cancel", h.Cancel)
	loans.POST("/:id/renew", h.Renew)
	loans.GET("/:id/pickup-token", h.PickupToken)

	loans.POST("/:id/confirm", requireAdmin, h.Confirm)
	loans.POST("/:id/return", requireAdmin, h.Return)
	loans.POST("/:id/lost", requireAdmin, h.MarkLost)
}

// Checkout turns the caller's cart into a pending loan.
func (h *LoanHandler) Checkout(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	loan, err := h.svc.Checkout(ctx, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToLoanResponse(loan))
}

func (h *LoanHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var filter dto.LoanFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.svc.List(ctx, actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.LoanResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.FromModelToLoanResponse(&list[i]))
	}
	paginated(c, resp, total, filter.Pagination)
}

func (h *LoanHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	loan, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}

func (h *LoanHandler) Cancel(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	loan, err := h.svc.Cancel(ctx, actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}

func (h *LoanHandler) Renew(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	loan, err := h.svc.Renew(ctx, actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}

// PickupToken issues the signed token the patron shows at the desk.
func (h *LoanHandler) PickupToken(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.PickupToken(ctx, actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LoanHandler) Confirm(c *gin.Context) {
	h.transition(c, h.svc.Confirm)
}

func (h *LoanHandler) Return(c *gin.Context) {
	h.transition(c, h.svc.Return)
}

func (h *LoanHandler) MarkLost(c *gin.Context) {
	h.transition(c, h.svc.MarkLost)
}

// transition runs a staff-only state change on the loan in the path.
func (h *LoanHandler) transition(c *gin.Context, fn func(ctx context.Context, loanID int64) (*models.Loan, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	loan, err := fn(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}
