package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type BookHandler struct {
	books   service.BookService
	reviews service.ReviewService
}

func NewBookHandler(books service.BookService, reviews service.ReviewService) *BookHandler {
	return &BookHandler{books: books, reviews: reviews}
}

func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Search)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/reviews", h.ListReviews)
}

// Search handles GET /books?q=&genre_id=&in_stock=&page=&limit=
func (h *BookHandler) Search(c *gin.Context) {
	var filter dto.BookFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.books.Search(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.BookResponse, 0, len(list))
	for _, b := range list {
		resp = append(resp, dto.FromModelToBookResponse(b))
	}
	paginated(c, resp, total, filter.Pagination)
}

func (h *BookHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	book, err := h.books.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToBookResponse(*book))
}

// ListReviews handles GET /books/:id/reviews
func (h *BookHandler) ListReviews(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var page dto.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.reviews.ListForBook(ctx, id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
