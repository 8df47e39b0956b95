package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	auth := APIKeyAuthMiddleware(h.cfg, h.logger)
	submitLimit := RateLimitMiddleware(h.cfg.RateLimitRPS)

	// Отчеты жителей
	reports := api.Group("/reports")
	{
		reports.POST("", submitLimit, h.createReport)
		reports.GET("", h.listReports)
		reports.GET("/stats", h.getReportStats)
		reports.GET("/geojson", h.reportsGeoJSON)
		reports.GET("/nearby/:latitude/:longitude", h.nearbyReports)
		reports.GET("/:id", h.getReport)
		reports.PUT("/:id", h.updateReport)
		reports.DELETE("/:id", h.deleteReport)
		reports.POST("/:id/upvote", submitLimit, h.upvoteReport)
		reports.DELETE("/:id/upvote", h.removeUpvote)
	}

	// Инциденты: изменения только с API-ключом
	incidents := api.Group("/incidents")
	{
		incidents.POST("", auth, h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/active", h.listActiveIncidents)
		incidents.GET("/geojson", h.incidentsGeoJSON)
		incidents.GET("/stats", h.getStats)
		incidents.GET("/severity", h.calculateSeverity)
		incidents.POST("/cluster", auth, h.clusterIncident)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id", auth, h.updateIncident)
		incidents.PATCH("/:id", auth, h.updateIncident)
		incidents.DELETE("/:id", auth, h.deleteIncident)
	}

	// Маршрут для проверки местоположения
	api.POST("/location/check", h.checkLocation)

	weather := api.Group("/weather")
	{
		weather.GET("/current", h.currentWeather)
		weather.GET("/forecast", h.weatherForecast)
	}

	scenario := api.Group("/scenario")
	{
		scenario.GET("/storm-scenario", h.stormScenario)
		scenario.GET("/scenario-weather/:latitude/:longitude", h.scenarioWeather)
		scenario.GET("/status", h.scenarioStatus)
		scenario.POST("/activate", auth, h.activateScenario)
		scenario.POST("/deactivate", auth, h.deactivateScenario)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
