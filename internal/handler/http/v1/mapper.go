package v1

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/proximity"
)

// DTOToReportModel преобразует DTO создания отчета в доменную модель
func DTOToReportModel(dto CreateReportRequest) *models.Report {
	return &models.Report{
		UserID:      dto.UserID,
		Type:        models.ReportType(dto.IncidentType),
		Latitude:    *dto.Latitude,
		Longitude:   *dto.Longitude,
		Description: dto.Description,
	}
}

// DTOToReportPatch преобразует DTO обновления в частичное изменение отчета
func DTOToReportPatch(dto UpdateReportRequest) models.ReportPatch {
	patch := models.ReportPatch{
		Description: dto.Description,
		IsVerified:  dto.IsVerified,
	}
	if dto.IncidentType != nil {
		t := models.ReportType(*dto.IncidentType)
		patch.Type = &t
	}
	return patch
}

func ModelToReportResponse(model *models.Report) *ReportResponse {
	return &ReportResponse{
		ID:           model.ID,
		UserID:       model.UserID,
		IncidentType: string(model.Type),
		Latitude:     model.Latitude,
		Longitude:    model.Longitude,
		Description:  model.Description,
		IsVerified:   model.IsVerified,
		UpvoteCount:  model.UpvoteCount,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func ModelsToReportResponses(reports []*models.Report) []*ReportResponse {
	responses := make([]*ReportResponse, len(reports))
	for i, report := range reports {
		responses[i] = ModelToReportResponse(report)
	}
	return responses
}

// ResultsToNearbyResponses сохраняет порядок по расстоянию
func ResultsToNearbyResponses(results []proximity.Result) []*NearbyReportResponse {
	responses := make([]*NearbyReportResponse, len(results))
	for i, r := range results {
		responses[i] = &NearbyReportResponse{
			ReportResponse: *ModelToReportResponse(r.Report),
			DistanceMeters: r.DistanceMeters,
		}
	}
	return responses
}

func ModelToReportStatsResponse(stats *models.ReportStats) *ReportStatsResponse {
	return &ReportStatsResponse{
		InfoCount:     stats.InfoCount,
		WarningCount:  stats.WarningCount,
		CriticalCount: stats.CriticalCount,
		TotalCount:    stats.TotalCount,
		Date:          stats.Date,
	}
}

// DTOToIncidentModel преобразует DTO создания в доменную модель.
// Новый инцидент активен, если не указано обратное.
func DTOToIncidentModel(dto CreateIncidentRequest) *models.Incident {
	isActive := true
	if dto.IsActive != nil {
		isActive = *dto.IsActive
	}
	return &models.Incident{
		Title:                dto.Title,
		Type:                 models.IncidentType(dto.IncidentType),
		Latitude:             *dto.Latitude,
		Longitude:            *dto.Longitude,
		Description:          dto.Description,
		SeverityScore:        dto.SeverityScore,
		AffectedRadiusMeters: dto.AffectedAreaRadius,
		IsActive:             isActive,
	}
}

func DTOToIncidentPatch(dto UpdateIncidentRequest) models.IncidentPatch {
	return models.IncidentPatch{
		Title:         dto.Title,
		Description:   dto.Description,
		SeverityScore: dto.SeverityScore,
		IsActive:      dto.IsActive,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:                 model.ID,
		Title:              model.Title,
		IncidentType:       string(model.Type),
		Latitude:           model.Latitude,
		Longitude:          model.Longitude,
		Description:        model.Description,
		SeverityScore:      model.SeverityScore,
		AffectedAreaRadius: model.AffectedRadiusMeters,
		IsActive:           model.IsActive,
		ReportCount:        model.ReportCount,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(incidents []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, incident := range incidents {
		responses[i] = ModelToIncidentResponse(incident)
	}
	return responses
}

// ReportsToFeatureCollection - отчеты как точки GeoJSON (координаты в порядке lon, lat)
func ReportsToFeatureCollection(reports []*models.Report) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range reports {
		f := geojson.NewPointFeature([]float64{r.Longitude, r.Latitude})
		f.ID = r.ID.String()
		f.SetProperty("incident_type", string(r.Type))
		f.SetProperty("description", r.Description)
		f.SetProperty("is_verified", r.IsVerified)
		f.SetProperty("upvote_count", r.UpvoteCount)
		f.SetProperty("created_at", r.CreatedAt)
		fc.AddFeature(f)
	}
	return fc
}

func IncidentsToFeatureCollection(incidents []*models.Incident) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, inc := range incidents {
		f := geojson.NewPointFeature([]float64{inc.Longitude, inc.Latitude})
		f.ID = inc.ID.String()
		f.SetProperty("title", inc.Title)
		f.SetProperty("incident_type", string(inc.Type))
		f.SetProperty("severity_score", inc.SeverityScore)
		f.SetProperty("affected_area_radius", inc.AffectedRadiusMeters)
		f.SetProperty("is_active", inc.IsActive)
		f.SetProperty("report_count", inc.ReportCount)
		fc.AddFeature(f)
	}
	return fc
}
