package main

import (
	"net/http"

	"game-tracker-backend/internal/shared/middleware"
	"game-tracker-backend/internal/shared/response"
	"game-tracker-backend/pkg/container"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Request body có field lạ => 400. Cờ này là global của gin nên set một lần cho process.
func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middlewares
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.CORSOrigins),
		middleware.Timeout(c.Config.App.RequestTimeout),
	)

	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Route not found")
	})
	router.NoMethod(func(ctx *gin.Context) {
		response.ErrorResponse(ctx, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	router.GET("/health", c.GameHandler.Health)
	c.GameHandler.RegisterRoutes(router)

	return router
}
