package cluster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportsAt(lat, lon float64, types ...models.ReportType) []*models.Report {
	reports := make([]*models.Report, len(types))
	for i, t := range types {
		reports[i] = &models.Report{ID: uuid.New(), Type: t, Latitude: lat, Longitude: lon}
	}
	return reports
}

func TestBuild_BelowThreshold(t *testing.T) {
	testCases := []struct {
		name       string
		reports    []*models.Report
		minReports int
	}{
		{"empty", nil, 3},
		{"two of three", reportsAt(15, 120.5, models.ReportTypeInfo, models.ReportTypeInfo), 3},
		{"four of five", reportsAt(15, 120.5, models.ReportTypeInfo, models.ReportTypeInfo, models.ReportTypeInfo, models.ReportTypeInfo), 5},
		{"empty with zero threshold", nil, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			incident, ok := Build(tc.reports, tc.minReports)

			assert.False(t, ok)
			assert.Nil(t, incident)
		})
	}
}

func TestBuild_ThreeCriticalReports(t *testing.T) {
	reports := reportsAt(15.0, 120.5, models.ReportTypeCritical, models.ReportTypeCritical, models.ReportTypeCritical)

	incident, ok := Build(reports, 3)

	require.True(t, ok)
	require.NotNil(t, incident)
	assert.Equal(t, 15.0, incident.Latitude)
	assert.Equal(t, 120.5, incident.Longitude)
	assert.Equal(t, models.IncidentTypeCritical, incident.Type)
	assert.Equal(t, 3, incident.ReportCount)
	assert.Equal(t, 60.0, incident.SeverityScore)
	assert.Equal(t, "Critical Incident - 3 reports", incident.Title)
	assert.Equal(t, "Clustered from 3 reports", incident.Description)
	assert.Equal(t, models.DefaultAffectedRadiusMeters, incident.AffectedRadiusMeters)
	assert.True(t, incident.IsActive)
	assert.Equal(t, uuid.Nil, incident.ID)
}

func TestBuild_DefaultThreshold(t *testing.T) {
	_, ok := Build(reportsAt(15, 120, models.ReportTypeInfo, models.ReportTypeInfo), 0)
	assert.False(t, ok)

	incident, ok := Build(reportsAt(15, 120, models.ReportTypeInfo, models.ReportTypeInfo, models.ReportTypeInfo), -1)
	require.True(t, ok)
	assert.Equal(t, 3, incident.ReportCount)
}

func TestBuild_DoesNotModifyReports(t *testing.T) {
	reports := []*models.Report{
		{ID: uuid.New(), Type: models.ReportTypeWarning, Latitude: 15.0, Longitude: 120.5, UpvoteCount: 2},
		{ID: uuid.New(), Type: models.ReportTypeInfo, Latitude: 15.002, Longitude: 120.502},
		{ID: uuid.New(), Type: models.ReportTypeWarning, Latitude: 15.004, Longitude: 120.498},
	}
	before := make([]models.Report, len(reports))
	for i, r := range reports {
		before[i] = *r
	}

	first, ok := Build(reports, 3)
	require.True(t, ok)
	second, ok := Build(reports, 3)
	require.True(t, ok)

	for i, r := range reports {
		assert.Equal(t, before[i], *r)
	}
	// одинаковый вход дает одинаковую форму инцидента
	assert.Equal(t, first, second)
}

func TestBuild_WarningSeverityAndTitle(t *testing.T) {
	reports := reportsAt(15, 120, models.ReportTypeWarning, models.ReportTypeWarning, models.ReportTypeInfo, models.ReportTypeWarning)

	incident, ok := Build(reports, 3)

	require.True(t, ok)
	assert.Equal(t, models.IncidentTypeWarning, incident.Type)
	assert.Equal(t, "Warning Incident - 4 reports", incident.Title)
	assert.Equal(t, 60.0, incident.SeverityScore)
}

func TestBuild_SeverityClamped(t *testing.T) {
	types := make([]models.ReportType, 8)
	for i := range types {
		types[i] = models.ReportTypeCritical
	}

	incident, ok := Build(reportsAt(15, 120, types...), 3)

	require.True(t, ok)
	assert.Equal(t, 100.0, incident.SeverityScore)
}

func TestCentroid(t *testing.T) {
	reports := []*models.Report{
		{Latitude: 15.0, Longitude: 120.0},
		{Latitude: 15.3, Longitude: 120.3},
		{Latitude: 15.6, Longitude: 120.9},
	}

	lat, lon := Centroid(reports)

	assert.InDelta(t, 15.3, lat, 1e-9)
	assert.InDelta(t, 120.4, lon, 1e-9)

	lat, lon = Centroid(nil)
	assert.Equal(t, 0.0, lat)
	assert.Equal(t, 0.0, lon)
}

func TestMajorityType(t *testing.T) {
	testCases := []struct {
		name  string
		types []models.ReportType
		want  models.ReportType
	}{
		{"clear majority", []models.ReportType{models.ReportTypeInfo, models.ReportTypeCritical, models.ReportTypeCritical}, models.ReportTypeCritical},
		{"tie resolves to first encountered", []models.ReportType{models.ReportTypeWarning, models.ReportTypeCritical, models.ReportTypeCritical, models.ReportTypeWarning}, models.ReportTypeWarning},
		{"tie reversed order", []models.ReportType{models.ReportTypeCritical, models.ReportTypeWarning, models.ReportTypeWarning, models.ReportTypeCritical}, models.ReportTypeCritical},
		{"three way tie", []models.ReportType{models.ReportTypeInfo, models.ReportTypeWarning, models.ReportTypeCritical}, models.ReportTypeInfo},
		{"later type overtakes", []models.ReportType{models.ReportTypeInfo, models.ReportTypeWarning, models.ReportTypeWarning}, models.ReportTypeWarning},
		{"single", []models.ReportType{models.ReportTypeCritical}, models.ReportTypeCritical},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MajorityType(reportsAt(0, 0, tc.types...)))
		})
	}
}
