package models

import (
	"time"

	"github.com/google/uuid"
)

// Report - наблюдение, отправленное жителем
type Report struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	Type        ReportType `json:"incident_type"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Description string     `json:"description,omitempty"`
	IsVerified  bool       `json:"is_verified"`
	UpvoteCount int        `json:"upvote_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ReportUpvote - голос одного пользователя за отчет, уникален по (report_id, user_id)
type ReportUpvote struct {
	ID        int64     `json:"id"`
	ReportID  uuid.UUID `json:"report_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportFilter struct {
	Type *ReportType
}

// ReportPatch - частичное обновление отчета
type ReportPatch struct {
	Type        *ReportType
	Description *string
	IsVerified  *bool
}

func (p ReportPatch) Apply(report *Report) {
	if p.Type != nil {
		report.Type = *p.Type
	}
	if p.Description != nil {
		report.Description = *p.Description
	}
	if p.IsVerified != nil {
		report.IsVerified = *p.IsVerified
	}
}

// ReportStats - количество отчетов по типам
type ReportStats struct {
	InfoCount     int    `json:"info_count"`
	CriticalCount int    `json:"critical_count"`
	WarningCount  int    `json:"warning_count"`
	TotalCount    int    `json:"total_count"`
	Date          string `json:"date"`
}
