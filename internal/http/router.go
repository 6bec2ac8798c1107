package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Devices, cfg.Version)
	router.GET("/health", health.Status)

	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := router.Group("/api")

	devicesController := NewDevicesController(cfg.Devices, cfg.Journal)
	api.GET("/devices", devicesController.List)
	api.POST("/devices", devicesController.Create)
	api.GET("/devices/:id", devicesController.Get)
	api.PUT("/devices/:id", devicesController.Update)
	api.DELETE("/devices/:id", devicesController.Delete)
	api.POST("/devices/:id/turn-on", devicesController.TurnOn)
	api.POST("/devices/:id/turn-off", devicesController.TurnOff)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		api.GET("/audit", auditController.GetAuditEvents)
	}

	return router
}
