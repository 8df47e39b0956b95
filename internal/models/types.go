package models

// ReportType - уровень опасности, который указывает житель в отчете
type ReportType string

const (
	ReportTypeInfo     ReportType = "info"
	ReportTypeWarning  ReportType = "warning"
	ReportTypeCritical ReportType = "critical"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeInfo, ReportTypeWarning, ReportTypeCritical:
		return true
	}
	return false
}

// IncidentType - категория инцидента. Пересекается с ReportType, но это отдельный тип:
// помимо уровней опасности включает категории объектов (эвакуационный центр, экстренные службы).
type IncidentType string

const (
	IncidentTypeInfo              IncidentType = "info"
	IncidentTypeWarning           IncidentType = "warning"
	IncidentTypeCritical          IncidentType = "critical"
	IncidentTypeFlood             IncidentType = "flood"
	IncidentTypeEvacuationCenter  IncidentType = "evacuation_center"
	IncidentTypeEmergencyServices IncidentType = "emergency_services"
)

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentTypeInfo, IncidentTypeWarning, IncidentTypeCritical,
		IncidentTypeFlood, IncidentTypeEvacuationCenter, IncidentTypeEmergencyServices:
		return true
	}
	return false
}

// IncidentTypeFromReport переводит тип отчета в тип инцидента при кластеризации
func IncidentTypeFromReport(t ReportType) IncidentType {
	switch t {
	case ReportTypeWarning:
		return IncidentTypeWarning
	case ReportTypeCritical:
		return IncidentTypeCritical
	default:
		return IncidentTypeInfo
	}
}
