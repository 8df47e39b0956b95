package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/service"
)

const incidentColumns = `
	id,
	title,
	incident_type,
	ST_Y(location::geometry) AS latitude,
	ST_X(location::geometry) AS longitude,
	description,
	severity_score,
	affected_radius_meters,
	is_active,
	report_count,
	created_at,
	updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Type,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Description,
		&incident.SeverityScore,
		&incident.AffectedRadiusMeters,
		&incident.IsActive,
		&incident.ReportCount,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func collectIncidents(rows pgx.Rows, op string) ([]*models.Incident, error) {
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, storageError(op+": failed to scan incident row", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op+": error list iteration", err)
	}
	return incidents, nil
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (title, incident_type, location, description, severity_score, affected_radius_meters, is_active, report_count)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Type,
		incident.Longitude,
		incident.Latitude,
		incident.Description,
		incident.SeverityScore,
		incident.AffectedRadiusMeters,
		incident.IsActive,
		incident.ReportCount,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return storageError("failed to create incident", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storageError(fmt.Sprintf("failed to get incident %s", id), err)
	}
	return incident, nil
}

// Update сохраняет изменяемые поля инцидента
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			title = $1,
			description = $2,
			severity_score = $3,
			is_active = $4,
			updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.SeverityScore,
		incident.IsActive,
		incident.ID,
	).Scan(&incident.UpdatedAt)
	if err != nil {
		return storageError(fmt.Sprintf("failed to update incident %s", incident.ID), err)
	}
	return nil
}

// Delete удаляет инцидент
func (r *IncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1;`, id)
	if err != nil {
		return storageError("failed to delete incident", err)
	}

	// RowsAffected() == 0 значит инцидента с таким id не существует
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for delete: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListIncidents возвращает список инцидентов с пагинацией и необязательными фильтрами
func (r *IncidentRepository) ListIncidents(ctx context.Context, filter models.IncidentFilter, page, pageSize int) ([]*models.Incident, error) {
	// рассчитываем смещение
	offset := (page - 1) * pageSize

	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE ($1::boolean IS NULL OR is_active = $1)
			AND ($2::text IS NULL OR incident_type = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4;
	`
	var incidentType *string
	if filter.Type != nil {
		t := string(*filter.Type)
		incidentType = &t
	}

	rows, err := r.db.Query(ctx, query, filter.IsActive, incidentType, pageSize, offset)
	if err != nil {
		return nil, storageError("failed to list incidents", err)
	}
	return collectIncidents(rows, "ListIncidents")
}

// ListActiveBySeverity возвращает активные инциденты, самые серьезные первыми
func (r *IncidentRepository) ListActiveBySeverity(ctx context.Context, limit int) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE is_active
		ORDER BY severity_score DESC, created_at DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, storageError("failed to list active incidents", err)
	}
	return collectIncidents(rows, "ListActiveBySeverity")
}

// FindActiveLocation находит активные инциденты, в радиус которых попадает точка
func (r *IncidentRepository) FindActiveLocation(ctx context.Context, lat, lon float64) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE
			is_active
			AND ST_DWithin(
				location,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
				affected_radius_meters
			)
		ORDER BY severity_score DESC;
	`
	rows, err := r.db.Query(ctx, query, lon, lat)
	if err != nil {
		return nil, storageError("failed to find active incidents by location", err)
	}
	return collectIncidents(rows, "FindActiveLocation")
}

// GetLocationCheckStats возвращает количество уникальных пользователей, проверивших геолокацию
func (r *IncidentRepository) GetLocationCheckStats(ctx context.Context, minutes int) (int, error) {
	query := `
		SELECT COUNT(DISTINCT user_id)
		FROM location_checks
		WHERE checked_at >= NOW() - ($1 * INTERVAL '1 minute');
	`
	var count int
	err := r.db.QueryRow(ctx, query, minutes).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, storageError("failed to get location check stats", err)
	}
	return count, nil
}

// SaveLocationCheck сохраняет запись о проверке местоположения в бд
func (r *IncidentRepository) SaveLocationCheck(ctx context.Context, check *models.LocationCheck) error {
	query := `
		INSERT INTO location_checks (user_id, location, is_dangerous, incident_count)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4, $5) RETURNING id, checked_at;
	`
	err := r.db.QueryRow(ctx, query,
		check.UserID,
		check.Longitude,
		check.Latitude,
		check.IsDangerous,
		check.IncidentCount,
	).Scan(&check.ID, &check.CheckedAt)
	if err != nil {
		return storageError("failed to save location check", err)
	}
	return nil
}

func incidentCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}

// GetIncidentFromCache пытается получить инцидент из Redis, промах кеша - (nil, nil)
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, incidentCacheKey(incident.ID), val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	if err := r.redisClient.Del(ctx, incidentCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
