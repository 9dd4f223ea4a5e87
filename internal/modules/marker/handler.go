package marker

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/pkg/response"
)

type createMarkerDTO struct {
	Lat           *float64 `json:"lat" binding:"required"`
	Lng           *float64 `json:"lng" binding:"required"`
	Report        string   `json:"report"`
	Emoji         string   `json:"reportEmoji"`
	EventPassword string   `json:"eventPassword" binding:"required"`
}

type updateMarkerDTO struct {
	Report string `json:"report"`
	Emoji  string `json:"reportEmoji"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/markers")

	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

// GET /markers?event=CODE
func (h *Handler) list(c *gin.Context) {
	key := models.CanonicalEventKey(c.Query("event"))
	if key == "" {
		response.BadRequest(c, "event code is required")
		return
	}

	items, err := h.svc.List(c.Request.Context(), key)
	if err != nil {
		response.ServiceUnavailable(c, err.Error())
		return
	}
	if items == nil {
		items = []models.MarkerRecord{}
	}
	response.OK(c, items)
}

// POST /markers
func (h *Handler) create(c *gin.Context) {
	var dto createMarkerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pos := models.Coordinate{Lat: *dto.Lat, Lng: *dto.Lng}
	if err := pos.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	id, err := h.svc.Create(c.Request.Context(), dto.EventPassword, pos, dto.Report, models.Category(dto.Emoji))
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidCoordinate):
		response.UnprocessableEntity(c, err.Error())
	case err != nil:
		response.ServiceUnavailable(c, err.Error())
	default:
		response.Created(c, gin.H{"id": id})
	}
}

// PUT /markers/:id
func (h *Handler) update(c *gin.Context) {
	var dto updateMarkerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.svc.Update(c.Request.Context(), c.Param("id"), dto.Report, models.Category(dto.Emoji))
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c)
	case err != nil:
		response.ServiceUnavailable(c, err.Error())
	default:
		response.NoContent(c)
	}
}

// DELETE /markers/:id
// An already-deleted marker is treated as success: concurrent deletes
// from multiple clients are expected.
func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		response.NoContent(c)
	default:
		response.ServiceUnavailable(c, err.Error())
	}
}
