package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shenikar/bantaybayan/internal/config"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/observability"
	"github.com/shenikar/bantaybayan/internal/proximity"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=report.go -destination=mocks/mock_report.go -package=mocks

// StatsDateLayout - формат даты в статистике отчетов
const StatsDateLayout = "Jan 02, 2006"

// ReportRepository определяет контракт для работы с бд отчетов
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListReports(ctx context.Context, filter models.ReportFilter, page, pageSize int) ([]*models.Report, error)
	ListAllReports(ctx context.Context, reportType *models.ReportType) ([]*models.Report, error)
	CountByType(ctx context.Context) (map[models.ReportType]int, error)
	AddUpvote(ctx context.Context, reportID uuid.UUID, userID string) (*models.Report, error)
	RemoveUpvote(ctx context.Context, reportID uuid.UUID, userID string) (*models.Report, error)
}

// ReportIndex - индекс отчетов в памяти, который сервис поддерживает в актуальном состоянии
type ReportIndex interface {
	Upsert(report *models.Report)
	Remove(id uuid.UUID)
	Replace(reports []*models.Report)
	Len() int
}

// IncidentClusterer создает инцидент из группы близких отчетов
type IncidentClusterer interface {
	ClusterReports(ctx context.Context, reports []*models.Report) (*models.Incident, error)
}

// ReportService определяет контракт бизнес-логики отчетов жителей
type ReportService interface {
	CreateReport(ctx context.Context, report *models.Report) (*models.Incident, error)
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	UpdateReport(ctx context.Context, id uuid.UUID, patch models.ReportPatch) (*models.Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
	ListReports(ctx context.Context, filter models.ReportFilter, page, pageSize int) ([]*models.Report, error)
	FindNearby(ctx context.Context, q proximity.Query) ([]proximity.Result, error)
	UpvoteReport(ctx context.Context, id uuid.UUID, userID string) (*models.Report, error)
	RemoveUpvote(ctx context.Context, id uuid.UUID, userID string) (*models.Report, error)
	GetStats(ctx context.Context) (*models.ReportStats, error)
	ClusterNearby(ctx context.Context, lat, lon, radiusMeters float64) (*models.Incident, error)
	RebuildIndex(ctx context.Context) error
}

type reportService struct {
	repo      ReportRepository
	finder    proximity.Finder
	index     ReportIndex // nil, если используется линейный поиск
	clusterer IncidentClusterer
	logger    *logrus.Logger
	cfg       *config.Config
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

func NewReportService(
	repo ReportRepository,
	finder proximity.Finder,
	index ReportIndex,
	clusterer IncidentClusterer,
	logger *logrus.Logger,
	cfg *config.Config,
	metrics *observability.Metrics,
	clock clockwork.Clock,
) ReportService {
	return &reportService{
		repo:      repo,
		finder:    finder,
		index:     index,
		clusterer: clusterer,
		logger:    logger,
		cfg:       cfg,
		metrics:   metrics,
		clock:     clock,
	}
}

// CreateReport сохраняет отчет и, если включено, пытается собрать инцидент из отчетов в радиусе кластеризации.
// Ошибка кластеризации не отменяет сохранение: она логируется, а инцидент не возвращается.
func (s *reportService) CreateReport(ctx context.Context, report *models.Report) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "report",
		"method":        "CreateReport",
		"user_id":       report.UserID,
		"incident_type": report.Type,
	})
	log.Info("Attempting to create a new report")

	if err := s.repo.Create(ctx, report); err != nil {
		log.WithError(err).Error("Failed to create report in repository")
		return nil, fmt.Errorf("service: could not create report: %w", err)
	}
	s.metrics.ReportsCreated.WithLabelValues(string(report.Type)).Inc()
	s.indexUpsert(report)

	log = log.WithField("report_id", report.ID)
	log.Info("Report created successfully")

	if !s.cfg.ClusterOnIngest {
		return nil, nil
	}

	nearby, err := s.FindNearby(ctx, proximity.Query{
		Latitude:     report.Latitude,
		Longitude:    report.Longitude,
		RadiusMeters: s.cfg.ClusterRadiusMeters,
	})
	if err != nil {
		s.metrics.ClusterEvaluations.WithLabelValues("error").Inc()
		log.WithError(err).Error("Failed to load nearby reports for clustering")
		return nil, nil
	}

	incident, err := s.clusterer.ClusterReports(ctx, proximity.Reports(nearby))
	if err != nil {
		log.WithError(err).Error("Failed to cluster nearby reports")
		return nil, nil
	}
	if incident != nil {
		log.WithField("incident_id", incident.ID).Info("Report triggered a clustered incident")
	}
	return incident, nil
}

func (s *reportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service":   "report",
			"method":    "GetReport",
			"report_id": id,
		}).WithError(err).Warn("Failed to get report in repository")
		return nil, fmt.Errorf("service: could not get report: %w", err)
	}
	return report, nil
}

// UpdateReport частично обновляет отчет
func (s *reportService) UpdateReport(ctx context.Context, id uuid.UUID, patch models.ReportPatch) (*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "UpdateReport",
		"report_id": id,
	})
	log.Info("Attempting to update a report")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent report")
		return nil, fmt.Errorf("service: report with id %s not found for update: %w", id, err)
	}

	patch.Apply(existing)

	if err := s.repo.Update(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update report in repository")
		return nil, fmt.Errorf("service: could not update report: %w", err)
	}
	s.indexUpsert(existing)

	log.Info("Report updated successfully")
	return existing, nil
}

// DeleteReport удаляет отчет вместе с его голосами
func (s *reportService) DeleteReport(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "DeleteReport",
		"report_id": id,
	})
	log.Info("Attempting to delete report")

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete report in repository")
		return fmt.Errorf("service: could not delete report %s: %w", id, err)
	}
	if s.index != nil {
		s.index.Remove(id)
		s.metrics.ProximityIndexSize.Set(float64(s.index.Len()))
	}

	log.Info("Report deleted successfully")
	return nil
}

// ListReports возвращает страницу отчетов
func (s *reportService) ListReports(ctx context.Context, filter models.ReportFilter, page, pageSize int) ([]*models.Report, error) {
	page, pageSize = normalizePage(page, pageSize)

	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "ListReports",
		"page":      page,
		"page_size": pageSize,
	})

	reports, err := s.repo.ListReports(ctx, filter, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list reports from repository")
		return nil, fmt.Errorf("service: could not list reports: %w", err)
	}

	log.WithField("count", len(reports)).Info("Reports listed successfully")
	return reports, nil
}

// FindNearby возвращает отчеты в радиусе от точки, ближайшие первыми
func (s *reportService) FindNearby(ctx context.Context, q proximity.Query) ([]proximity.Result, error) {
	start := time.Now()
	results, err := s.finder.Nearby(ctx, q)
	s.metrics.ProximityQueryDuration.WithLabelValues(s.cfg.ProximityStrategy).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "report",
			"method":  "FindNearby",
		}).WithError(err).Error("Failed to find nearby reports")
		return nil, fmt.Errorf("service: could not find nearby reports: %w", err)
	}
	return results, nil
}

// UpvoteReport добавляет голос пользователя, повторный голос - models.ErrAlreadyUpvoted
func (s *reportService) UpvoteReport(ctx context.Context, id uuid.UUID, userID string) (*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "UpvoteReport",
		"report_id": id,
		"user_id":   userID,
	})

	report, err := s.repo.AddUpvote(ctx, id, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to upvote report")
		return nil, fmt.Errorf("service: could not upvote report: %w", err)
	}
	s.indexUpsert(report)

	log.WithField("upvote_count", report.UpvoteCount).Info("Report upvoted")
	return report, nil
}

// RemoveUpvote снимает голос пользователя, отсутствующий голос - models.ErrNotUpvoted
func (s *reportService) RemoveUpvote(ctx context.Context, id uuid.UUID, userID string) (*models.Report, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "RemoveUpvote",
		"report_id": id,
		"user_id":   userID,
	})

	report, err := s.repo.RemoveUpvote(ctx, id, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to remove upvote")
		return nil, fmt.Errorf("service: could not remove upvote: %w", err)
	}
	s.indexUpsert(report)

	log.WithField("upvote_count", report.UpvoteCount).Info("Upvote removed")
	return report, nil
}

// GetStats возвращает количество отчетов по типам на текущую дату
func (s *reportService) GetStats(ctx context.Context) (*models.ReportStats, error) {
	counts, err := s.repo.CountByType(ctx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "report",
			"method":  "GetStats",
		}).WithError(err).Error("Failed to count reports")
		return nil, fmt.Errorf("service: could not get report stats: %w", err)
	}

	stats := &models.ReportStats{
		InfoCount:     counts[models.ReportTypeInfo],
		WarningCount:  counts[models.ReportTypeWarning],
		CriticalCount: counts[models.ReportTypeCritical],
		Date:          s.clock.Now().Format(StatsDateLayout),
	}
	for _, n := range counts {
		stats.TotalCount += n
	}
	return stats, nil
}

// ClusterNearby собирает инцидент из отчетов в радиусе от точки
func (s *reportService) ClusterNearby(ctx context.Context, lat, lon, radiusMeters float64) (*models.Incident, error) {
	nearby, err := s.FindNearby(ctx, proximity.Query{Latitude: lat, Longitude: lon, RadiusMeters: radiusMeters})
	if err != nil {
		return nil, err
	}

	incident, err := s.clusterer.ClusterReports(ctx, proximity.Reports(nearby))
	if err != nil {
		return nil, fmt.Errorf("service: could not cluster reports: %w", err)
	}
	return incident, nil
}

// RebuildIndex заново загружает все отчеты в индекс
func (s *reportService) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	log := s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "RebuildIndex",
	})

	reports, err := s.repo.ListAllReports(ctx, nil)
	if err != nil {
		log.WithError(err).Error("Failed to load reports for index rebuild")
		return fmt.Errorf("service: could not rebuild proximity index: %w", err)
	}
	s.index.Replace(reports)
	s.metrics.ProximityIndexSize.Set(float64(s.index.Len()))

	log.WithField("reports", len(reports)).Info("Proximity index rebuilt")
	return nil
}

func (s *reportService) indexUpsert(report *models.Report) {
	if s.index == nil {
		return
	}
	s.index.Upsert(report)
	s.metrics.ProximityIndexSize.Set(float64(s.index.Len()))
}
