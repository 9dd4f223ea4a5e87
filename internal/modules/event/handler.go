package event

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/pkg/response"
)

type createEventDTO struct {
	Code      string   `json:"eventCode" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timezone  string   `json:"timeZone"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/events")

	g.GET("/:code", h.find)
	g.POST("", h.create)
}

// GET /events/:code
func (h *Handler) find(c *gin.Context) {
	rec, err := h.svc.Find(c.Request.Context(), c.Param("code"))
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "Invalid code. Please try again.")
	case err != nil:
		response.ServiceUnavailable(c, err.Error())
	default:
		response.OK(c, rec)
	}
}

// POST /events
func (h *Handler) create(c *gin.Context) {
	var dto createEventDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var center *models.Coordinate
	if dto.Latitude != nil && dto.Longitude != nil {
		center = &models.Coordinate{Lat: *dto.Latitude, Lng: *dto.Longitude}
	}

	rec, err := h.svc.Create(c.Request.Context(), dto.Code, center, dto.Timezone)
	switch {
	case errors.Is(err, ErrAlreadyExists):
		response.Conflict(c, "event code already exists")
	case errors.Is(err, models.ErrInvalidCoordinate), errors.Is(err, models.ErrInvalidInput):
		response.UnprocessableEntity(c, err.Error())
	case err != nil:
		response.ServiceUnavailable(c, err.Error())
	default:
		response.Created(c, rec)
	}
}
