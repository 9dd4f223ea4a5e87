package geocode

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spes-app/core/internal/models"
	"github.com/spes-app/core/internal/pkg/response"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler { return &Handler{client: client} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/geo/reverse", h.reverse)
}

// GET /geo/reverse?lat=&lng=
func (h *Handler) reverse(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		response.BadRequest(c, "lat and lng are required")
		return
	}

	pos := models.Coordinate{Lat: lat, Lng: lng}
	if err := pos.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	response.OK(c, gin.H{"name": h.client.ReverseName(c.Request.Context(), pos)})
}
