package cluster

import "github.com/shenikar/bantaybayan/internal/models"

var incidentTypeMultipliers = map[models.IncidentType]float64{
	models.IncidentTypeInfo:     0.5,
	models.IncidentTypeWarning:  1.0,
	models.IncidentTypeCritical: 2.0,
}

// Severity - самостоятельная оценка серьезности инцидента в диапазоне [0, 100].
//
//	base = min(reportCount*5, 50)
//	score = base * множитель типа (info 0.5, warning 1.0, critical 2.0, остальные 1.0)
//	score += min(population/1000, 30), если оценка населения задана
func Severity(reportCount int, incidentType models.IncidentType, population *int) float64 {
	base := min(float64(reportCount)*5, 50)

	multiplier, ok := incidentTypeMultipliers[incidentType]
	if !ok {
		multiplier = 1.0
	}
	score := base * multiplier

	if population != nil && *population > 0 {
		score += min(float64(*population)/1000, 30)
	}
	return models.ClampSeverity(score)
}

// ClusterSeverity - оценка серьезности для инцидента, собранного из отчетов.
// Отдельная формула: reportCount*10 с множителем critical 2, warning 1.5, иначе 1.
func ClusterSeverity(reportCount int, reportType models.ReportType) float64 {
	score := float64(reportCount) * 10
	switch reportType {
	case models.ReportTypeCritical:
		score *= 2
	case models.ReportTypeWarning:
		score *= 1.5
	}
	return models.ClampSeverity(score)
}
