package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/bantaybayan/internal/cluster"
	"github.com/shenikar/bantaybayan/internal/models"
)

// @Summary Create a new incident
// @Description Create a new incident in the system. Severity is clamped to [0, 100]. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	model := DTOToIncidentModel(input)
	if err := h.incidentService.CreateIncident(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to create incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// incidentFilter читает необязательные фильтры is_active и incident_type
func incidentFilter(c *gin.Context) (models.IncidentFilter, bool) {
	var filter models.IncidentFilter
	if raw := c.Query("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid is_active value"})
			return filter, false
		}
		filter.IsActive = &isActive
	}
	if raw := c.Query("incident_type"); raw != "" {
		t := models.IncidentType(raw)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident_type"})
			return filter, false
		}
		filter.Type = &t
	}
	return filter, true
}

// @Summary Get a list of incidents
// @Description Get a paginated list of incidents, newest first, with optional filters
// @Tags Incidents
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Param is_active query bool false "Filter by active flag"
// @Param incident_type query string false "Filter by incident type"
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	filter, ok := incidentFilter(c)
	if !ok {
		return
	}
	page, pageSize := parsePage(c)

	incidents, err := h.incidentService.ListIncidents(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incident from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get active incidents
// @Description Get active incidents ordered by severity, highest first
// @Tags Incidents
// @Produce json
// @Param limit query int false "Maximum number of incidents" default(50)
// @Success 200 {array} IncidentResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/active [get]
func (h *Handler) listActiveIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listActiveIncidents")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	incidents, err := h.incidentService.ListActiveIncidents(c.Request.Context(), limit)
	if err != nil {
		log.WithError(err).Error("Failed to list active incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Export active incidents as GeoJSON
// @Description Active incidents as a GeoJSON FeatureCollection of points
// @Tags Incidents
// @Produce json
// @Param limit query int false "Maximum number of incidents" default(50)
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/geojson [get]
func (h *Handler) incidentsGeoJSON(c *gin.Context) {
	log := h.logger.WithField("method", "incidentsGeoJSON")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	incidents, err := h.incidentService.ListActiveIncidents(c.Request.Context(), limit)
	if err != nil {
		log.WithError(err).Error("Failed to list active incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, IncidentsToFeatureCollection(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, ok := parseID(c, "incident")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, log, err, "incident")
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an existing incident
// @Description Partially update an incident by ID. Omitted fields keep their values. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident update request"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [put]
// @Router /incidents/{id} [patch]
func (h *Handler) updateIncident(c *gin.Context) {
	id, ok := parseID(c, "incident")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
	if !h.bindAndValidate(c, log, &input) {
		return
	}

	incident, err := h.incidentService.UpdateIncident(c.Request.Context(), id, DTOToIncidentPatch(input))
	if err != nil {
		respondServiceError(c, log, err, "incident")
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Delete an incident
// @Description Delete an incident by its ID. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, ok := parseID(c, "incident")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteIncident").WithField("id", id)

	if err := h.incidentService.DeleteIncident(c.Request.Context(), id); err != nil {
		respondServiceError(c, log, err, "incident")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Cluster reports into an incident
// @Description Group reports around a point into an incident when the threshold is met. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body ClusterRequest true "Cluster center and radius"
// @Success 201 {object} ClusterResponse "Incident created"
// @Success 200 {object} ClusterResponse "Not enough reports"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/cluster [post]
func (h *Handler) clusterIncident(c *gin.Context) {
	var input ClusterRequest
	log := h.logger.WithField("method", "clusterIncident")

	if !h.bindAndValidate(c, log, &input) {
		return
	}
	radius := input.RadiusMeters
	if radius == 0 {
		radius = h.cfg.ClusterRadiusMeters
	}

	incident, err := h.reportService.ClusterNearby(c.Request.Context(), *input.Latitude, *input.Longitude, radius)
	if err != nil {
		respondServiceError(c, log, err, "incident")
		return
	}
	if incident == nil {
		c.JSON(http.StatusOK, ClusterResponse{Clustered: false})
		return
	}
	c.JSON(http.StatusCreated, ClusterResponse{Clustered: true, Incident: ModelToIncidentResponse(incident)})
}

// @Summary Calculate incident severity
// @Description Severity score in [0, 100] from report count, incident type and optional affected population
// @Tags Incidents
// @Produce json
// @Param report_count query int true "Number of reports"
// @Param incident_type query string true "Incident type"
// @Param population query int false "Affected population"
// @Success 200 {object} SeverityResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /incidents/severity [get]
func (h *Handler) calculateSeverity(c *gin.Context) {
	count, err := strconv.Atoi(c.Query("report_count"))
	if err != nil || count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report_count must be a non-negative integer"})
		return
	}
	incidentType := models.IncidentType(c.Query("incident_type"))
	if !incidentType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident_type"})
		return
	}

	var population *int
	if raw := c.Query("population"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "population must be a non-negative integer"})
			return
		}
		population = &p
	}

	c.JSON(http.StatusOK, SeverityResponse{SeverityScore: cluster.Severity(count, incidentType, population)})
}

// @Summary Check location for incidents
// @Description Return active incidents whose affected area covers the point. Dangerous checks publish a webhook event.
// @Tags Location
// @Accept json
// @Produce json
// @Param location body LocationCheckRequest true "Location check request"
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /location/check [post]
func (h *Handler) checkLocation(c *gin.Context) {
	var input LocationCheckRequest
	log := h.logger.WithField("method", "checkLocation")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	incidents, err := h.incidentService.CheckLocation(c.Request.Context(), input.UserID, *input.Latitude, *input.Longitude)
	if err != nil {
		log.WithError(err).Error("Failed to check location in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get user statistics
// @Description Get the number of distinct users that checked their location within the stats window
// @Tags Incidents
// @Accept json
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	userCount, err := h.incidentService.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get stats from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{UserCount: userCount})
}
