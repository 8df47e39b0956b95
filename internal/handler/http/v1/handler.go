package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/bantaybayan/internal/config"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/scenario"
	"github.com/shenikar/bantaybayan/internal/service"
	"github.com/shenikar/bantaybayan/internal/weather"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService service.IncidentService
	reportService   service.ReportService
	weather         weather.Provider
	simulator       *scenario.Simulator
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(
	incidentService service.IncidentService,
	reportService service.ReportService,
	weatherProvider weather.Provider,
	simulator *scenario.Simulator,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		incidentService: incidentService,
		reportService:   reportService,
		weather:         weatherProvider,
		simulator:       simulator,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// bindAndValidate разбирает тело запроса и проверяет его. При ошибке ответ уже отправлен.
func (h *Handler) bindAndValidate(c *gin.Context, log *logrus.Entry, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// parseID читает uuid из параметра пути. При ошибке ответ уже отправлен.
func parseID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + entity + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// parsePage читает page и pageSize. Ограничения применяет сервис.
func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, pageSize
}

// respondServiceError выбирает код ответа по ошибке сервиса
func respondServiceError(c *gin.Context, log *logrus.Entry, err error, entity string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		log.WithError(err).Warn("Entity not found")
		c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
	case errors.Is(err, models.ErrAlreadyUpvoted):
		log.WithError(err).Warn("Duplicate upvote")
		c.JSON(http.StatusConflict, gin.H{"error": "you have already upvoted this report"})
	case errors.Is(err, models.ErrNotUpvoted):
		log.WithError(err).Warn("Upvote not found")
		c.JSON(http.StatusBadRequest, gin.H{"error": "you have not upvoted this report"})
	case errors.Is(err, weather.ErrInvalidDays):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, weather.ErrUpstream):
		log.WithError(err).Error("Weather upstream failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to fetch weather data"})
	default:
		log.WithError(err).Error("Service call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
