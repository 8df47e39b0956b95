package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateReportRequest DTO для отправки отчета жителем
// @Description DTO для отправки отчета жителем
type CreateReportRequest struct {
	UserID       string   `json:"user_id" validate:"required,max=255"`
	IncidentType string   `json:"incident_type" validate:"required,oneof=info warning critical"`
	Latitude     *float64 `json:"latitude" validate:"required,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required,longitude"`
	Description  string   `json:"description,omitempty" validate:"max=2000"`
}

// UpdateReportRequest DTO для частичного обновления отчета
// @Description DTO для частичного обновления отчета
type UpdateReportRequest struct {
	IncidentType *string `json:"incident_type,omitempty" validate:"omitempty,oneof=info warning critical"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	IsVerified   *bool   `json:"is_verified,omitempty"`
}

// ReportResponse DTO для ответа с информацией об отчете
// @Description DTO для ответа с информацией об отчете
type ReportResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	IncidentType string    `json:"incident_type"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Description  string    `json:"description,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	UpvoteCount  int       `json:"upvote_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateReportResponse - созданный отчет и инцидент, если отчет замкнул кластер
// @Description Созданный отчет и инцидент, если отчет замкнул кластер
type CreateReportResponse struct {
	ReportResponse
	ClusteredIncident *IncidentResponse `json:"clustered_incident,omitempty"`
}

// NearbyReportResponse - отчет и расстояние до точки запроса
// @Description Отчет и расстояние до точки запроса
type NearbyReportResponse struct {
	ReportResponse
	DistanceMeters float64 `json:"distance_meters"`
}

// ReportStatsResponse DTO статистики отчетов по типам
// @Description DTO статистики отчетов по типам
type ReportStatsResponse struct {
	InfoCount     int    `json:"info_count"`
	WarningCount  int    `json:"warning_count"`
	CriticalCount int    `json:"critical_count"`
	TotalCount    int    `json:"total_count"`
	Date          string `json:"date"`
}

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Title              string   `json:"title" validate:"required,min=2,max=255"`
	IncidentType       string   `json:"incident_type" validate:"required,oneof=info warning critical flood evacuation_center emergency_services"`
	Latitude           *float64 `json:"latitude" validate:"required,latitude"`
	Longitude          *float64 `json:"longitude" validate:"required,longitude"`
	Description        string   `json:"description,omitempty"`
	SeverityScore      float64  `json:"severity_score"`
	AffectedAreaRadius float64  `json:"affected_area_radius" validate:"gte=0"`
	IsActive           *bool    `json:"is_active,omitempty"`
}

// UpdateIncidentRequest DTO для частичного обновления инцидента
// @Description DTO для частичного обновления инцидента
type UpdateIncidentRequest struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,min=2,max=255"`
	Description   *string  `json:"description,omitempty"`
	SeverityScore *float64 `json:"severity_score,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	IncidentType       string    `json:"incident_type"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Description        string    `json:"description,omitempty"`
	SeverityScore      float64   `json:"severity_score"`
	AffectedAreaRadius float64   `json:"affected_area_radius"`
	IsActive           bool      `json:"is_active"`
	ReportCount        int       `json:"report_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ClusterRequest DTO для ручной кластеризации отчетов вокруг точки
// @Description DTO для ручной кластеризации отчетов вокруг точки
type ClusterRequest struct {
	Latitude     *float64 `json:"latitude" validate:"required,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required,longitude"`
	RadiusMeters float64  `json:"radius_meters,omitempty" validate:"omitempty,gt=0"`
}

// ClusterResponse - результат кластеризации. Incident пуст, если отчетов недостаточно.
// @Description Результат кластеризации
type ClusterResponse struct {
	Clustered bool              `json:"clustered"`
	Incident  *IncidentResponse `json:"incident,omitempty"`
}

// SeverityResponse DTO с рассчитанной оценкой серьезности
// @Description DTO с рассчитанной оценкой серьезности
type SeverityResponse struct {
	SeverityScore float64 `json:"severity_score"`
}

// LocationCheckRequest DTO для проверки координат
// @Description DTO для проверки координат
type LocationCheckRequest struct {
	UserID    string   `json:"user_id" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

// StatsResponse DTO для ответа со статистикой
// @Description DTO для ответа со статистикой
type StatsResponse struct {
	UserCount int `json:"user_count"`
}
