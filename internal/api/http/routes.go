package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the registry API
func RegisterRoutes(router gin.IRouter, h *Handlers, agg *MetricsAggregator) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	reg := router.Group("/registry")
	reg.POST("/publish", h.Publish)
	reg.GET("/accounts", h.ListAccounts)
	reg.GET("/accounts/:address", h.GetAccount)
	reg.GET("/accounts/:address/packages/:name", h.GetPackage)
	reg.GET("/stats", h.Stats)

	if agg != nil {
		router.GET("/metrics/json", agg.GetAggregatedMetrics)
	}
}
