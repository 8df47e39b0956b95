package models

import (
	"time"
)

// LocationCheck - запись о проверке безопасности точки пользователем
type LocationCheck struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	IsDangerous   bool      `json:"is_dangerous"`
	IncidentCount int       `json:"incident_count"`
	CheckedAt     time.Time `json:"checked_at"`
}
