package http

import (
	"log/slog"

	"microforge/pulse/internal/api/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(log *slog.Logger, notifications *NotificationController, healthCtl *HealthController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS())

	api := router.Group("/api")

	n := api.Group("/notifications")
	n.GET("/", notifications.History)
	n.PUT("/:id/read", notifications.MarkRead)
	n.POST("/send", notifications.Send)
	n.POST("/email", notifications.SendEmail)
	n.POST("/batch", notifications.SendBatch)
	n.GET("/status/:notificationId", notifications.Status)
	n.POST("/user-registration", notifications.UserRegistration)
	n.POST("/user-login", notifications.UserLogin)

	h := api.Group("/health")
	h.GET("", healthCtl.Live)
	h.GET("/services", healthCtl.Services)
	h.POST("/refresh", healthCtl.Refresh)

	return router
}
