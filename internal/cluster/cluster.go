// Package cluster собирает инцидент из группы близких отчетов и считает его серьезность.
package cluster

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shenikar/bantaybayan/internal/models"
)

// DefaultMinReports - минимальное число отчетов для создания инцидента
const DefaultMinReports = 3

var titleCaser = cases.Title(language.English)

// Build собирает инцидент из отчетов. Если отчетов меньше minReports, возвращает (nil, false).
// Отчеты не изменяются. ID и время создания назначает хранилище.
func Build(reports []*models.Report, minReports int) (*models.Incident, bool) {
	if minReports < 1 {
		minReports = DefaultMinReports
	}
	if len(reports) < minReports {
		return nil, false
	}

	lat, lon := Centroid(reports)
	reportType := MajorityType(reports)
	count := len(reports)

	return &models.Incident{
		Title:                fmt.Sprintf("%s Incident - %d reports", titleCaser.String(string(reportType)), count),
		Type:                 models.IncidentTypeFromReport(reportType),
		Latitude:             lat,
		Longitude:            lon,
		Description:          fmt.Sprintf("Clustered from %d reports", count),
		SeverityScore:        ClusterSeverity(count, reportType),
		AffectedRadiusMeters: models.DefaultAffectedRadiusMeters,
		IsActive:             true,
		ReportCount:          count,
	}, true
}

// Centroid - среднее арифметическое широт и долгот по отдельности.
// Это плоское приближение, а не сферический центроид: на радиусах в сотни метров
// разница пренебрежимо мала. Вблизи антимеридиана результат неверен.
func Centroid(reports []*models.Report) (lat, lon float64) {
	if len(reports) == 0 {
		return 0, 0
	}
	for _, r := range reports {
		lat += r.Latitude
		lon += r.Longitude
	}
	n := float64(len(reports))
	return lat / n, lon / n
}

// MajorityType возвращает самый частый тип отчетов.
// При равенстве побеждает тип, который встретился первым во входном порядке.
func MajorityType(reports []*models.Report) models.ReportType {
	counts := make(map[models.ReportType]int)
	order := make([]models.ReportType, 0, 3)
	for _, r := range reports {
		if _, seen := counts[r.Type]; !seen {
			order = append(order, r.Type)
		}
		counts[r.Type]++
	}

	var best models.ReportType
	bestCount := 0
	for _, t := range order {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best
}
