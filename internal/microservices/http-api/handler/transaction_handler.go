package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	svc service.TransactionService
}

func NewTransactionHandler(svc service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

// List handles GET /transactions and GET /admin/transactions. Non-admins only
// ever see their own rows.
func (h *TransactionHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var filter dto.TransactionFilter
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
	resp := make([]dto.TransactionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.FromModelToTransactionResponse(&list[i]))
	}
	paginated(c, resp, total, filter.Pagination)
}

// Settle handles POST /admin/transactions/:id/settle
func (h *TransactionHandler) Settle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	txn, err := h.svc.Settle(ctx, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToTransactionResponse(txn))
}
