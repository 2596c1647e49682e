package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	svc service.InvoiceService
}

func NewInvoiceHandler(svc service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/pay", h.StartPayment)
	rg.POST("/:id/mark-paid", requireAdmin, h.MarkPaid)
	rg.POST("/:id/void", requireAdmin, h.Void)
}

// List handles GET /invoices (own) and GET /admin/invoices (any user).
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var filter dto.InvoiceFilter
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
	resp := make([]dto.InvoiceResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.FromModelToInvoiceResponse(&list[i]))
	}
	paginated(c, resp, total, filter.Pagination)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
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

	inv, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToInvoiceResponse(inv))
}

// MarkPaid settles the invoice and records the payment transaction.
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.MarkPaidRequest
	// empty body means cash with a generated reference
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	inv, txn, err := h.svc.MarkPaid(ctx, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MarkPaidResponse{
		Invoice:     dto.FromModelToInvoiceResponse(inv),
		Transaction: dto.FromModelToTransactionResponse(txn),
	})
}

// StartPayment opens a pending online payment; the gateway callback settles it.
func (h *InvoiceHandler) StartPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.StartPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	txn, err := h.svc.StartPayment(ctx, actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToTransactionResponse(txn))
}

func (h *InvoiceHandler) Void(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.VoidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	inv, err := h.svc.Void(ctx, id, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToInvoiceResponse(inv))
}
