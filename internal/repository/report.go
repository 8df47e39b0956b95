package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/service"
)

const reportColumns = `
	id,
	user_id,
	incident_type,
	ST_Y(location::geometry) AS latitude,
	ST_X(location::geometry) AS longitude,
	COALESCE(description, '') AS description,
	is_verified,
	upvote_count,
	created_at,
	updated_at`

type ReportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) service.ReportRepository {
	return &ReportRepository{db: db}
}

func scanReport(row rowScanner) (*models.Report, error) {
	report := &models.Report{}
	err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.Type,
		&report.Latitude,
		&report.Longitude,
		&report.Description,
		&report.IsVerified,
		&report.UpvoteCount,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func collectReports(rows pgx.Rows, op string) ([]*models.Report, error) {
	defer rows.Close()

	reports := make([]*models.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, storageError(op+": failed to scan report row", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op+": error list iteration", err)
	}
	return reports, nil
}

// Create сохраняет отчет, id и временные метки назначает бд
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (user_id, incident_type, location, description, is_verified)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), NULLIF($5, ''), $6)
		RETURNING id, upvote_count, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		report.UserID,
		report.Type,
		report.Longitude,
		report.Latitude,
		report.Description,
		report.IsVerified,
	).Scan(&report.ID, &report.UpvoteCount, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return storageError("failed to create report", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1;`

	report, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storageError(fmt.Sprintf("failed to get report %s", id), err)
	}
	return report, nil
}

// Update сохраняет изменяемые поля отчета (тип, описание, признак проверки)
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) error {
	query := `
		UPDATE reports SET
			incident_type = $1,
			description = NULLIF($2, ''),
			is_verified = $3,
			updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		report.Type,
		report.Description,
		report.IsVerified,
		report.ID,
	).Scan(&report.UpdatedAt)
	if err != nil {
		return storageError(fmt.Sprintf("failed to update report %s", report.ID), err)
	}
	return nil
}

// Delete удаляет отчет, голоса удаляются каскадно
func (r *ReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1;`, id)
	if err != nil {
		return storageError("failed to delete report", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("report with id %s not found for delete: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListReports возвращает страницу отчетов, новые первыми
func (r *ReportRepository) ListReports(ctx context.Context, filter models.ReportFilter, page, pageSize int) ([]*models.Report, error) {
	offset := (page - 1) * pageSize

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE ($1::text IS NULL OR incident_type = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, reportTypeArg(filter.Type), pageSize, offset)
	if err != nil {
		return nil, storageError("failed to list reports", err)
	}
	return collectReports(rows, "ListReports")
}

// ListAllReports возвращает все отчеты в порядке создания.
// Этот порядок считается порядком обхода для поиска ближайших отчетов.
func (r *ReportRepository) ListAllReports(ctx context.Context, reportType *models.ReportType) ([]*models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE ($1::text IS NULL OR incident_type = $1)
		ORDER BY created_at, id;
	`
	rows, err := r.db.Query(ctx, query, reportTypeArg(reportType))
	if err != nil {
		return nil, storageError("failed to list all reports", err)
	}
	return collectReports(rows, "ListAllReports")
}

// CountByType возвращает количество отчетов каждого типа
func (r *ReportRepository) CountByType(ctx context.Context) (map[models.ReportType]int, error) {
	rows, err := r.db.Query(ctx, `SELECT incident_type, COUNT(*) FROM reports GROUP BY incident_type;`)
	if err != nil {
		return nil, storageError("failed to count reports", err)
	}
	defer rows.Close()

	counts := make(map[models.ReportType]int)
	for rows.Next() {
		var (
			reportType models.ReportType
			count      int
		)
		if err := rows.Scan(&reportType, &count); err != nil {
			return nil, storageError("failed to scan report count", err)
		}
		counts[reportType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("error count iteration", err)
	}
	return counts, nil
}

// AddUpvote записывает голос пользователя и увеличивает счетчик в одной транзакции
func (r *ReportRepository) AddUpvote(ctx context.Context, reportID uuid.UUID, userID string) (*models.Report, error) {
	var report *models.Report
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockReport(ctx, tx, reportID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `INSERT INTO report_upvotes (report_id, user_id) VALUES ($1, $2);`, reportID, userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return models.ErrAlreadyUpvoted
			}
			return storageError("failed to insert upvote", err)
		}

		query := `
			UPDATE reports SET upvote_count = upvote_count + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + reportColumns + `;
		`
		report, err = scanReport(tx.QueryRow(ctx, query, reportID))
		if err != nil {
			return storageError("failed to increment upvote count", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// RemoveUpvote удаляет голос пользователя, счетчик не опускается ниже нуля
func (r *ReportRepository) RemoveUpvote(ctx context.Context, reportID uuid.UUID, userID string) (*models.Report, error) {
	var report *models.Report
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockReport(ctx, tx, reportID); err != nil {
			return err
		}

		cmdTag, err := tx.Exec(ctx, `DELETE FROM report_upvotes WHERE report_id = $1 AND user_id = $2;`, reportID, userID)
		if err != nil {
			return storageError("failed to delete upvote", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return models.ErrNotUpvoted
		}

		query := `
			UPDATE reports SET upvote_count = GREATEST(upvote_count - 1, 0), updated_at = NOW()
			WHERE id = $1
			RETURNING ` + reportColumns + `;
		`
		report, err = scanReport(tx.QueryRow(ctx, query, reportID))
		if err != nil {
			return storageError("failed to decrement upvote count", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// lockReport блокирует строку отчета до конца транзакции
func lockReport(ctx context.Context, tx pgx.Tx, reportID uuid.UUID) error {
	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM reports WHERE id = $1 FOR UPDATE;`, reportID).Scan(&id); err != nil {
		return storageError(fmt.Sprintf("failed to lock report %s", reportID), err)
	}
	return nil
}

func reportTypeArg(t *models.ReportType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}
