package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/proximity"
)

// reportTypeQuery читает необязательный фильтр incident_type для отчетов
func reportTypeQuery(c *gin.Context) (*models.ReportType, bool) {
	raw := c.Query("incident_type")
	if raw == "" {
		return nil, true
	}
	t := models.ReportType(raw)
	if !t.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident_type"})
		return nil, false
	}
	return &t, true
}

// @Summary Submit a report
// @Description Store a resident report. When enough nearby reports exist an incident is created and returned with the report.
// @Tags Reports
// @Accept json
// @Produce json
// @Param report body CreateReportRequest true "Report creation request"
// @Success 201 {object} CreateReportResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 429 {object} map[string]string "Rate limit exceeded"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports [post]
func (h *Handler) createReport(c *gin.Context) {
	var input CreateReportRequest
	log := h.logger.WithField("method", "createReport")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	report := DTOToReportModel(input)
	incident, err := h.reportService.CreateReport(c.Request.Context(), report)
	if err != nil {
		log.WithError(err).Error("Failed to create report in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := CreateReportResponse{ReportResponse: *ModelToReportResponse(report)}
	if incident != nil {
		resp.ClusteredIncident = ModelToIncidentResponse(incident)
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a list of reports
// @Description Get a paginated list of reports, newest first
// @Tags Reports
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Param incident_type query string false "Filter by report type" Enums(info, warning, critical)
// @Success 200 {array} ReportResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports [get]
func (h *Handler) listReports(c *gin.Context) {
	log := h.logger.WithField("method", "listReports")
	reportType, ok := reportTypeQuery(c)
	if !ok {
		return
	}
	page, pageSize := parsePage(c)

	reports, err := h.reportService.ListReports(c.Request.Context(), models.ReportFilter{Type: reportType}, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list reports from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToReportResponses(reports))
}

// @Summary Export reports as GeoJSON
// @Description A page of reports as a GeoJSON FeatureCollection of points
// @Tags Reports
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Param incident_type query string false "Filter by report type" Enums(info, warning, critical)
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/geojson [get]
func (h *Handler) reportsGeoJSON(c *gin.Context) {
	log := h.logger.WithField("method", "reportsGeoJSON")
	reportType, ok := reportTypeQuery(c)
	if !ok {
		return
	}
	page, pageSize := parsePage(c)

	reports, err := h.reportService.ListReports(c.Request.Context(), models.ReportFilter{Type: reportType}, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list reports from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ReportsToFeatureCollection(reports))
}

// @Summary Get report statistics
// @Description Count reports by type
// @Tags Reports
// @Produce json
// @Success 200 {object} ReportStatsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/stats [get]
func (h *Handler) getReportStats(c *gin.Context) {
	log := h.logger.WithField("method", "getReportStats")

	stats, err := h.reportService.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get report stats from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelToReportStatsResponse(stats))
}

// @Summary Get report by ID
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} map[string]string "Invalid report ID"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/{id} [get]
func (h *Handler) getReport(c *gin.Context) {
	id, ok := parseID(c, "report")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getReport").WithField("id", id)

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, log, err, "report")
		return
	}
	c.JSON(http.StatusOK, ModelToReportResponse(report))
}

// @Summary Update a report
// @Description Partially update a report. Omitted fields keep their values.
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param report body UpdateReportRequest true "Report update request"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} map[string]string "Invalid report ID or request body"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/{id} [put]
func (h *Handler) updateReport(c *gin.Context) {
	id, ok := parseID(c, "report")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateReport").WithField("id", id)

	var input UpdateReportRequest
	if !h.bindAndValidate(c, log, &input) {
		return
	}

	report, err := h.reportService.UpdateReport(c.Request.Context(), id, DTOToReportPatch(input))
	if err != nil {
		respondServiceError(c, log, err, "report")
		return
	}
	c.JSON(http.StatusOK, ModelToReportResponse(report))
}

// @Summary Delete a report
// @Tags Reports
// @Param id path string true "Report ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid report ID"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/{id} [delete]
func (h *Handler) deleteReport(c *gin.Context) {
	id, ok := parseID(c, "report")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteReport").WithField("id", id)

	if err := h.reportService.DeleteReport(c.Request.Context(), id); err != nil {
		respondServiceError(c, log, err, "report")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Find nearby reports
// @Description Reports within the radius of a point, closest first
// @Tags Reports
// @Produce json
// @Param latitude path number true "Latitude"
// @Param longitude path number true "Longitude"
// @Param radius query number false "Radius in meters" default(100)
// @Param incident_type query string false "Filter by report type" Enums(info, warning, critical)
// @Success 200 {array} NearbyReportResponse
// @Failure 400 {object} map[string]string "Invalid coordinates, radius or filter"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/nearby/{latitude}/{longitude} [get]
func (h *Handler) nearbyReports(c *gin.Context) {
	log := h.logger.WithField("method", "nearbyReports")

	lat, lon, ok := h.pathCoordinates(c)
	if !ok {
		return
	}
	radius := h.cfg.NearbyDefaultRadiusMeters
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a non-negative number"})
			return
		}
		radius = r
	}
	reportType, ok := reportTypeQuery(c)
	if !ok {
		return
	}

	results, err := h.reportService.FindNearby(c.Request.Context(), proximity.Query{
		Latitude:     lat,
		Longitude:    lon,
		RadiusMeters: radius,
		Type:         reportType,
	})
	if err != nil {
		log.WithError(err).Error("Failed to find nearby reports in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ResultsToNearbyResponses(results))
}

// @Summary Upvote a report
// @Description Add the user's upvote. Each user can upvote a report once.
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Param user_id query string true "User ID"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} map[string]string "Invalid report ID or missing user"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 409 {object} map[string]string "Already upvoted"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/{id}/upvote [post]
func (h *Handler) upvoteReport(c *gin.Context) {
	id, ok := parseID(c, "report")
	if !ok {
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	log := h.logger.WithField("method", "upvoteReport").WithField("id", id)

	report, err := h.reportService.UpvoteReport(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, log, err, "report")
		return
	}
	c.JSON(http.StatusOK, ModelToReportResponse(report))
}

// @Summary Remove an upvote
// @Description Remove the user's upvote. The count never goes below zero.
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Param user_id query string true "User ID"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} map[string]string "Invalid report ID, missing user or no upvote"
// @Failure 404 {object} map[string]string "Report not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reports/{id}/upvote [delete]
func (h *Handler) removeUpvote(c *gin.Context) {
	id, ok := parseID(c, "report")
	if !ok {
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	log := h.logger.WithField("method", "removeUpvote").WithField("id", id)

	report, err := h.reportService.RemoveUpvote(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, log, err, "report")
		return
	}
	c.JSON(http.StatusOK, ModelToReportResponse(report))
}
