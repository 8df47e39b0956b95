// Package proximity отвечает за поиск отчетов в радиусе от точки.
//
// Контракт у всех реализаций Finder одинаковый: в результат попадают отчеты на
// расстоянии не больше радиуса (и нужного типа, если задан фильтр), отсортированные
// по возрастанию расстояния; при равных расстояниях сохраняется порядок обхода.
package proximity

import (
	"context"
	"fmt"
	"slices"

	"github.com/shenikar/bantaybayan/internal/geo"
	"github.com/shenikar/bantaybayan/internal/models"
)

// Query - параметры поиска ближайших отчетов
type Query struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Type         *models.ReportType
}

// Result - найденный отчет и расстояние до центра запроса
type Result struct {
	Report         *models.Report
	DistanceMeters float64
}

// Finder ищет отчеты в радиусе от точки
type Finder interface {
	Nearby(ctx context.Context, q Query) ([]Result, error)
}

// ReportSource - интерфейс чтения всех отчетов хранилища (с фильтром по типу)
type ReportSource interface {
	ListAllReports(ctx context.Context, reportType *models.ReportType) ([]*models.Report, error)
}

// Filter выполняет линейный проход по кандидатам. Входной слайс не изменяется.
func Filter(q Query, candidates []*models.Report) []Result {
	results := make([]Result, 0)
	for _, report := range candidates {
		if q.Type != nil && report.Type != *q.Type {
			continue
		}
		d := geo.Distance(q.Latitude, q.Longitude, report.Latitude, report.Longitude)
		if d <= q.RadiusMeters {
			results = append(results, Result{Report: report, DistanceMeters: d})
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.DistanceMeters < b.DistanceMeters:
			return -1
		case a.DistanceMeters > b.DistanceMeters:
			return 1
		}
		return 0
	})
	return results
}

// Reports возвращает отчеты из результатов поиска в том же порядке
func Reports(results []Result) []*models.Report {
	reports := make([]*models.Report, len(results))
	for i, r := range results {
		reports[i] = r.Report
	}
	return reports
}

// ScanFinder читает кандидатов из хранилища при каждом запросе
type ScanFinder struct {
	source ReportSource
}

func NewScanFinder(source ReportSource) *ScanFinder {
	return &ScanFinder{source: source}
}

func (f *ScanFinder) Nearby(ctx context.Context, q Query) ([]Result, error) {
	candidates, err := f.source.ListAllReports(ctx, q.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate reports: %w", err)
	}
	return Filter(q, candidates), nil
}
