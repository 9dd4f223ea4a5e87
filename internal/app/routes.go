package app

import (
	"github.com/gin-gonic/gin"
	"github.com/spes-app/core/internal/modules/event"
	"github.com/spes-app/core/internal/modules/geocode"
	"github.com/spes-app/core/internal/modules/marker"
	"github.com/spes-app/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{
			"name":    "spes-core",
			"version": "1.0.0",
			"online":  a.hub.ClientCount(""),
		})
	})

	api := r.Group(apiPrefix)

	marker.NewHandler(a.markers).RegisterRoutes(api)
	event.NewHandler(event.NewService(a.db, a.logger)).RegisterRoutes(api)
	geocode.NewHandler(geocode.NewClient(a.cfg.Nominatim, a.logger)).RegisterRoutes(api)

	// live subscription transport
	r.Any("/socket.io/*any", gin.WrapH(a.hub.Handler()))
}
