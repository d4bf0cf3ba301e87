package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	rentals := g.Group("/rentals")
	rentals.Use(authMiddleware)
	{
		rentals.GET("", h.List)
		rentals.POST("", h.Create)
		rentals.GET("/:id", h.Get)
		rentals.PATCH("/:id", h.Update)
		rentals.POST("/:id/return", h.Return)
		rentals.POST("/:id/cancel", h.Cancel)
	}

	books := g.Group("/books")
	books.Use(authMiddleware)
	{
		books.GET("/:id/availability", h.Availability)
		books.GET("/:id/blocked-ranges", h.BlockedRanges)
	}

	g.GET("/calendar", authMiddleware, h.Calendar)
}
