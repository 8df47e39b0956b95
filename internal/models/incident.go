package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAffectedRadiusMeters - радиус зоны инцидента по умолчанию
const DefaultAffectedRadiusMeters = 300.0

type Incident struct {
	ID                   uuid.UUID    `json:"id"`
	Title                string       `json:"title"`
	Type                 IncidentType `json:"incident_type"`
	Latitude             float64      `json:"latitude"`
	Longitude            float64      `json:"longitude"`
	Description          string       `json:"description"`
	SeverityScore        float64      `json:"severity_score"`
	AffectedRadiusMeters float64      `json:"affected_area_radius"`
	IsActive             bool         `json:"is_active"`
	ReportCount          int          `json:"report_count"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// IncidentFilter - необязательные фильтры для списка инцидентов
type IncidentFilter struct {
	IsActive *bool
	Type     *IncidentType
}

// IncidentPatch - частичное обновление инцидента, nil поля не меняются
type IncidentPatch struct {
	Title         *string
	Description   *string
	SeverityScore *float64
	IsActive      *bool
}

// Apply применяет изменения к инциденту. Оценка серьезности ограничивается диапазоном [0, 100].
func (p IncidentPatch) Apply(incident *Incident) {
	if p.Title != nil {
		incident.Title = *p.Title
	}
	if p.Description != nil {
		incident.Description = *p.Description
	}
	if p.SeverityScore != nil {
		incident.SeverityScore = ClampSeverity(*p.SeverityScore)
	}
	if p.IsActive != nil {
		incident.IsActive = *p.IsActive
	}
}

// ClampSeverity ограничивает оценку серьезности диапазоном [0, 100]
func ClampSeverity(score float64) float64 {
	return min(max(score, 0), 100)
}
