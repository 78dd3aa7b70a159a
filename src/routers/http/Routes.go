package http

import (
	"context"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/routers/websocket"
	"github.com/gin-gonic/gin"
)

func AddRoutes(ctx context.Context, r *gin.Engine, authMiddleware *jwt.GinJWTMiddleware, configuration *models.Configuration, controller Controller) *gin.RouterGroup {

	streams := NewStreams(ctx, controller)

	r.GET("/ws", func(c *gin.Context) {
		websocket.WebsocketHandler(c, controller)
	})

	api := r.Group("/api")
	{
		api.POST("/login", authMiddleware.LoginHandler)

		api.GET("/cameras", func(c *gin.Context) {
			GetCameras(c, controller)
		})
		api.GET("/status", func(c *gin.Context) {
			GetStatuses(c, controller)
		})
		api.GET("/system", func(c *gin.Context) {
			GetSystemInfo(c, controller)
		})

		api.GET("/cameras/:id/status", func(c *gin.Context) {
			GetStatus(c, controller)
		})
		api.GET("/cameras/:id/frame.jpg", func(c *gin.Context) {
			GetFrame(c, controller, configuration)
		})
		api.GET("/cameras/:id/stream.mjpeg", func(c *gin.Context) {
			GetStream(c, controller, streams)
		})
		api.GET("/cameras/:id/probe", func(c *gin.Context) {
			ProbeCamera(c, controller)
		})

		// Start and stop change the state of the agent, they are secured
		// when authentication is enabled.
		control := api.Group("/cameras")
		if AuthEnabled(configuration.Config.HTTP) {
			control.Use(authMiddleware.MiddlewareFunc())
		}
		{
			control.GET("/:id/start", func(c *gin.Context) {
				StartCamera(c, controller)
			})
			control.POST("/:id/start", func(c *gin.Context) {
				StartCamera(c, controller)
			})
			control.GET("/:id/stop", func(c *gin.Context) {
				StopCamera(c, controller)
			})
			control.POST("/:id/stop", func(c *gin.Context) {
				StopCamera(c, controller)
			})
		}
	}
	return api
}
