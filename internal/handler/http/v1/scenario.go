package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Get storm scenario
// @Description Simulated typhoon with forecasts and flood predictions for Pampanga municipalities
// @Tags Scenario
// @Produce json
// @Success 200 {object} scenario.StormScenario
// @Router /scenario/storm-scenario [get]
func (h *Handler) stormScenario(c *gin.Context) {
	c.JSON(http.StatusOK, h.simulator.StormScenario())
}

// @Summary Get scenario weather for a location
// @Description Simulated storm rainfall adjusted by distance to the nearest municipality
// @Tags Scenario
// @Produce json
// @Param latitude path number true "Latitude"
// @Param longitude path number true "Longitude"
// @Success 200 {object} scenario.LocationWeather
// @Failure 400 {object} map[string]string "Invalid coordinates"
// @Router /scenario/scenario-weather/{latitude}/{longitude} [get]
func (h *Handler) scenarioWeather(c *gin.Context) {
	lat, lon, ok := h.pathCoordinates(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.simulator.LocationWeather(lat, lon))
}

// @Summary Activate storm scenario
// @Description Switch weather endpoints to simulated typhoon data. Requires API key.
// @Tags Scenario
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} scenario.Activation
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /scenario/activate [post]
func (h *Handler) activateScenario(c *gin.Context) {
	h.logger.WithField("method", "activateScenario").Info("Storm scenario activated")
	c.JSON(http.StatusOK, h.simulator.Activate())
}

// @Summary Deactivate storm scenario
// @Description Return weather endpoints to live data. Requires API key.
// @Tags Scenario
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} scenario.Deactivation
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /scenario/deactivate [post]
func (h *Handler) deactivateScenario(c *gin.Context) {
	h.logger.WithField("method", "deactivateScenario").Info("Storm scenario deactivated")
	c.JSON(http.StatusOK, h.simulator.Deactivate())
}

// @Summary Get storm scenario status
// @Tags Scenario
// @Produce json
// @Success 200 {object} scenario.Status
// @Router /scenario/status [get]
func (h *Handler) scenarioStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.simulator.Status())
}
