package handler

import (
	"net/http"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type GenreHandler struct {
	svc service.GenreService
}

func NewGenreHandler(svc service.GenreService) *GenreHandler {
	return &GenreHandler{svc: svc}
}

// RegisterRoutes mounts the public listing. admin may be nil.
func (h *GenreHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("", h.List)
	if admin != nil {
		admin.POST("", h.Create)
	}
}

// List handles GET /genres
func (h *GenreHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	shelves, err := h.svc.Shelves(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.GenreResponse, 0, len(shelves))
	for _, s := range shelves {
		resp = append(resp, dto.GenreFromShelf(s))
	}
	c.JSON(http.StatusOK, gin.H{"genres": resp})
}

// Create handles POST /admin/genres
func (h *GenreHandler) Create(c *gin.Context) {
	var in dto.CreateGenreRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	genre, err := h.svc.Create(ctx, in.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.GenreFromModel(*genre))
}
