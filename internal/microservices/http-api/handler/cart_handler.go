package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	svc service.CartService
}

func NewCartHandler(svc service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Add)
	rg.PUT("", h.Set)
	rg.DELETE("/:book_id", h.Remove)
}

func (h *CartHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.svc.List(ctx, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.CartItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, dto.FromModelToCartItemResponse(it))
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

// Add handles POST /cart; the quantity is added to what is already in the cart.
func (h *CartHandler) Add(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	item, err := h.svc.Add(ctx, actor.UserID, req.BookID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToCartItemResponse(*item))
}

// Set handles PUT /cart; quantity 0 removes the line.
func (h *CartHandler) Set(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.SetCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	item, err := h.svc.Set(ctx, actor.UserID, req.BookID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToCartItemResponse(*item))
}

func (h *CartHandler) Remove(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bookID, ok := parseID(c, "book_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Remove(ctx, actor.UserID, bookID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
