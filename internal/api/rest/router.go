// Package rest exposes the playback orchestrator as an authenticated
// HTTP API.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP router. All playback routes require a valid
// Bearer token signed with the given secret.
func NewRouter(handler *Handler, jwtSecret string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", AuthMiddleware(jwtSecret))
	{
		pb := api.Group("/playback")
		pb.POST("/start", handler.Start)
		pb.POST("/pause", handler.Pause)
		pb.POST("/resume", handler.Resume)
		pb.POST("/next", handler.Next)
		pb.POST("/previous", handler.Previous)
		pb.POST("/stop", handler.Stop)
		pb.GET("/status", handler.Status)
		pb.GET("/history", handler.History)

		api.GET("/metrics", handler.Metrics)
	}

	return router
}
