package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shenikar/bantaybayan/internal/cluster"
	"github.com/shenikar/bantaybayan/internal/config"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/observability"
	"github.com/shenikar/bantaybayan/internal/webhook"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=incident.go -destination=mocks/mock_incident.go -package=mocks

const (
	defaultActiveLimit = 50
	maxPageSize        = 100
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context, filter models.IncidentFilter, page, pageSize int) ([]*models.Incident, error)
	ListActiveBySeverity(ctx context.Context, limit int) ([]*models.Incident, error)
	FindActiveLocation(ctx context.Context, lat, lon float64) ([]*models.Incident, error)
	GetLocationCheckStats(ctx context.Context, minutes int) (int, error)
	SaveLocationCheck(ctx context.Context, check *models.LocationCheck) error
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// IncidentService определяет контракт для бизнес-логики управления инцидентами
type IncidentService interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, id uuid.UUID, patch models.IncidentPatch) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context, filter models.IncidentFilter, page, pageSize int) ([]*models.Incident, error)
	ListActiveIncidents(ctx context.Context, limit int) ([]*models.Incident, error)
	CheckLocation(ctx context.Context, userID string, lat, lon float64) ([]*models.Incident, error)
	GetStats(ctx context.Context) (int, error)
	ClusterReports(ctx context.Context, reports []*models.Report) (*models.Incident, error)
}

type incidentService struct {
	repo      IncidentRepository
	logger    *logrus.Logger
	cfg       *config.Config
	publisher webhook.WebhookPublisher
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

func NewIncidentService(
	repo IncidentRepository,
	logger *logrus.Logger,
	cfg *config.Config,
	publisher webhook.WebhookPublisher,
	metrics *observability.Metrics,
	clock clockwork.Clock,
) IncidentService {
	return &incidentService{
		repo:      repo,
		logger:    logger,
		cfg:       cfg,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
	}
}

// CreateIncident создает инцидент
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"title":   incident.Title,
	})
	log.Info("Attempting to create a new incident")

	if incident.AffectedRadiusMeters <= 0 {
		incident.AffectedRadiusMeters = models.DefaultAffectedRadiusMeters
	}
	incident.SeverityScore = models.ClampSeverity(incident.SeverityScore)

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, incident.ID); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Info("Fetching incident by ID")

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache, falling back to database")
	}
	if cached != nil {
		log.Debug("Incident served from cache")
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}

	log.Info("Incident fetched successfully")
	return incident, nil
}

// UpdateIncident частично обновляет существующий инцидент
func (s *incidentService) UpdateIncident(ctx context.Context, id uuid.UUID, patch models.IncidentPatch) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
	})
	log.Info("Attempting to update an incident")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return nil, fmt.Errorf("service: incident with id %s not found for update: %w", id, err)
	}

	patch.Apply(existing)

	if err := s.repo.Update(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident updated successfully")
	return existing, nil
}

// DeleteIncident удаляет инцидент
func (s *incidentService) DeleteIncident(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
	})
	log.Info("Attempting to delete incident")

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete incident in repository")
		return fmt.Errorf("service: could not delete incident %s: %w", id, err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident deleted successfully")
	return nil
}

// ListIncidents возвращает список инцидентов с пагинацией
func (s *incidentService) ListIncidents(ctx context.Context, filter models.IncidentFilter, page, pageSize int) ([]*models.Incident, error) {
	page, pageSize = normalizePage(page, pageSize)

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"page":      page,
		"page_size": pageSize,
	})
	log.Info("Listing incidents")

	incidents, err := s.repo.ListIncidents(ctx, filter, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// ListActiveIncidents возвращает активные инциденты по убыванию серьезности
func (s *incidentService) ListActiveIncidents(ctx context.Context, limit int) ([]*models.Incident, error) {
	if limit < 1 || limit > maxPageSize {
		limit = defaultActiveLimit
	}
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListActiveIncidents",
		"limit":   limit,
	})

	incidents, err := s.repo.ListActiveBySeverity(ctx, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list active incidents from repository")
		return nil, fmt.Errorf("service: could not list active incidents: %w", err)
	}
	return incidents, nil
}

// CheckLocation находит активные инциденты, сохраняет проверку и публикует вебхук при опасности
func (s *incidentService) CheckLocation(ctx context.Context, userID string, lat, lon float64) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CheckLocation",
		"user_id": userID,
	})
	log.Info("Checking user location")

	activeIncidents, err := s.repo.FindActiveLocation(ctx, lat, lon)
	if err != nil {
		log.WithError(err).Error("Failed to find active incidents by location")
		return nil, fmt.Errorf("service: failed to find active incidents: %w", err)
	}
	isDanger := len(activeIncidents) > 0

	check := &models.LocationCheck{
		UserID:        userID,
		Latitude:      lat,
		Longitude:     lon,
		IsDangerous:   isDanger,
		IncidentCount: len(activeIncidents),
	}
	if err := s.repo.SaveLocationCheck(ctx, check); err != nil {
		log.WithError(err).Error("Failed to save location check")
		return nil, fmt.Errorf("service: failed to save location check: %w", err)
	}

	if isDanger {
		event := webhook.WebhookEvent{
			Type:        webhook.EventLocationDanger,
			UserID:      userID,
			Latitude:    lat,
			Longitude:   lon,
			IsDangerous: true,
			Timestamp:   s.clock.Now().UTC(),
			Incidents:   activeIncidents,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Error("Failed to publish webhook event")
		}
	}

	log.WithField("is_danger", isDanger).Info("Location check completed")
	return activeIncidents, nil
}

// GetStats возвращает количество уникальных пользователей, проверивших местоположение за окно статистики
func (s *incidentService) GetStats(ctx context.Context) (int, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "GetStats",
		"window":  s.cfg.StatsTimeWindowMinutes,
	})

	count, err := s.repo.GetLocationCheckStats(ctx, s.cfg.StatsTimeWindowMinutes)
	if err != nil {
		log.WithError(err).Error("Failed to get location check stats")
		return 0, fmt.Errorf("service: could not get stats: %w", err)
	}
	return count, nil
}

// ClusterReports создает инцидент из группы отчетов. Если отчетов меньше порога,
// возвращает (nil, nil). Сами отчеты не изменяются.
func (s *incidentService) ClusterReports(ctx context.Context, reports []*models.Report) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ClusterReports",
		"reports": len(reports),
	})

	incident, ok := cluster.Build(reports, s.cfg.ClusterMinReports)
	if !ok {
		s.metrics.ClusterEvaluations.WithLabelValues("skipped").Inc()
		log.Debug("Not enough reports to form an incident")
		return nil, nil
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		s.metrics.ClusterEvaluations.WithLabelValues("error").Inc()
		log.WithError(err).Error("Failed to store clustered incident")
		return nil, fmt.Errorf("service: could not store clustered incident: %w", err)
	}
	s.metrics.ClusterEvaluations.WithLabelValues("created").Inc()
	s.metrics.IncidentsClustered.Inc()

	incidentID := incident.ID
	event := webhook.WebhookEvent{
		Type:       webhook.EventIncidentClustered,
		IncidentID: &incidentID,
		Latitude:   incident.Latitude,
		Longitude:  incident.Longitude,
		Timestamp:  s.clock.Now().UTC(),
		Incidents:  []*models.Incident{incident},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).Error("Failed to publish webhook event")
	}

	log.WithFields(logrus.Fields{
		"incident_id":    incident.ID,
		"incident_type":  incident.Type,
		"severity_score": incident.SeverityScore,
	}).Info("Incident clustered from reports")
	return incident, nil
}

// normalizePage приводит параметры пагинации к допустимым значениям
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}
	return page, pageSize
}
