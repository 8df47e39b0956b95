package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/bantaybayan/internal/weather"
)

// parseCoordinates проверяет пару координат. При ошибке ответ уже отправлен.
func (h *Handler) parseCoordinates(c *gin.Context, rawLat, rawLon string) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || h.validate.Var(lat, "latitude") != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude"})
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil || h.validate.Var(lon, "longitude") != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid longitude"})
		return 0, 0, false
	}
	return lat, lon, true
}

func (h *Handler) pathCoordinates(c *gin.Context) (float64, float64, bool) {
	return h.parseCoordinates(c, c.Param("latitude"), c.Param("longitude"))
}

func (h *Handler) queryCoordinates(c *gin.Context) (float64, float64, bool) {
	return h.parseCoordinates(c, c.Query("latitude"), c.Query("longitude"))
}

// @Summary Get current weather
// @Description Current conditions from Open-Meteo. While the storm scenario is active, simulated typhoon data is returned.
// @Tags Weather
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Success 200 {object} weather.Current
// @Failure 400 {object} map[string]string "Invalid coordinates"
// @Failure 503 {object} map[string]string "Weather upstream unavailable"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /weather/current [get]
func (h *Handler) currentWeather(c *gin.Context) {
	lat, lon, ok := h.queryCoordinates(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "currentWeather")

	if h.simulator.Active() {
		c.JSON(http.StatusOK, h.simulator.CurrentWeather(lat, lon))
		return
	}

	current, err := h.weather.Current(c.Request.Context(), lat, lon)
	if err != nil {
		respondServiceError(c, log, err, "weather")
		return
	}
	c.JSON(http.StatusOK, current)
}

// @Summary Get weather forecast
// @Description Daily forecast from Open-Meteo
// @Tags Weather
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param days query int false "Number of days (1-16)" default(7)
// @Success 200 {object} weather.Forecast
// @Failure 400 {object} map[string]string "Invalid coordinates or days"
// @Failure 503 {object} map[string]string "Weather upstream unavailable"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /weather/forecast [get]
func (h *Handler) weatherForecast(c *gin.Context) {
	lat, lon, ok := h.queryCoordinates(c)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(weather.DefaultForecastDays)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": weather.ErrInvalidDays.Error()})
		return
	}
	log := h.logger.WithField("method", "weatherForecast").WithField("days", days)

	forecast, err := h.weather.Forecast(c.Request.Context(), lat, lon, days)
	if err != nil {
		respondServiceError(c, log, err, "weather")
		return
	}
	c.JSON(http.StatusOK, forecast)
}
