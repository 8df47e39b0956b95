package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shenikar/bantaybayan/internal/config"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/scenario"
	"github.com/shenikar/bantaybayan/internal/service/mocks"
	"github.com/shenikar/bantaybayan/internal/weather"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var apiKeyHeader = map[string]string{"X-API-Key": "test-api-key"}

// fakeWeather - управляемый источник погоды для тестов
type fakeWeather struct {
	current      *weather.Current
	forecast     *weather.Forecast
	err          error
	currentCalls int
	gotDays      int
}

func (f *fakeWeather) Current(_ context.Context, lat, lon float64) (*weather.Current, error) {
	f.currentCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.current, nil
}

func (f *fakeWeather) Forecast(_ context.Context, lat, lon float64, days int) (*weather.Forecast, error) {
	f.gotDays = days
	if f.err != nil {
		return nil, f.err
	}
	return f.forecast, nil
}

type testDeps struct {
	incidents *mocks.MockIncidentService
	reports   *mocks.MockReportService
	weather   *fakeWeather
	simulator *scenario.Simulator
}

func testConfig() *config.Config {
	return &config.Config{
		APIKeys:                   []string{"test-api-key"},
		StatsTimeWindowMinutes:    60,
		RateLimitRPS:              1000,
		ClusterRadiusMeters:       1000,
		NearbyDefaultRadiusMeters: 100,
	}
}

// newTestHandler создает роутер с мокированными сервисами
func newTestHandler(t *testing.T) (*testDeps, *gin.Engine) {
	return newTestHandlerWithConfig(t, testConfig())
}

func newTestHandlerWithConfig(t *testing.T, cfg *config.Config) (*testDeps, *gin.Engine) {
	ctrl := gomock.NewController(t)
	deps := &testDeps{
		incidents: mocks.NewMockIncidentService(ctrl),
		reports:   mocks.NewMockReportService(ctrl),
		weather:   &fakeWeather{},
		simulator: scenario.NewSimulator(
			clockwork.NewFakeClockAt(time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)),
			rand.New(rand.NewPCG(1, 2)),
		),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	handler := NewHandler(deps.incidents, deps.reports, deps.weather, deps.simulator, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return deps, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func ptr[T any](v T) *T { return &v }

func TestCreateIncident_Success(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()
	reqBody := CreateIncidentRequest{
		Title:              "Flooded underpass",
		IncidentType:       "flood",
		Description:        "Water up to the knees",
		Latitude:           ptr(15.03),
		Longitude:          ptr(120.69),
		SeverityScore:      70,
		AffectedAreaRadius: 500,
	}

	deps.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			assert.Equal(t, models.IncidentTypeFlood, inc.Type)
			assert.True(t, inc.IsActive) // по умолчанию инцидент активен
			assert.Equal(t, 500.0, inc.AffectedRadiusMeters)
			inc.ID = incidentID
			inc.CreatedAt = time.Now()
			return nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, reqBody), apiKeyHeader)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, reqBody.Title, resp.Title)
	assert.Equal(t, "flood", resp.IncidentType)
}

func TestCreateIncident_ZeroCoordinatesAccepted(t *testing.T) {
	deps, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{
		Title:        "Null island",
		IncidentType: "info",
		Latitude:     ptr(0.0),
		Longitude:    ptr(0.0),
		IsActive:     ptr(false),
	}

	deps.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			assert.False(t, inc.IsActive)
			return nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, reqBody), apiKeyHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(`{"title": "test"`), apiKeyHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_ValidationError(t *testing.T) {
	tests := []struct {
		name    string
		reqBody CreateIncidentRequest
		want    string
	}{
		{
			name:    "Missing title",
			reqBody: CreateIncidentRequest{IncidentType: "flood", Latitude: ptr(10.0), Longitude: ptr(20.0)},
			want:    "Error:Field validation for 'Title' failed on the 'required' tag",
		},
		{
			name:    "Missing latitude",
			reqBody: CreateIncidentRequest{Title: "Test", IncidentType: "flood", Longitude: ptr(20.0)},
			want:    "Error:Field validation for 'Latitude' failed on the 'required' tag",
		},
		{
			name:    "Latitude out of range",
			reqBody: CreateIncidentRequest{Title: "Test", IncidentType: "flood", Latitude: ptr(91.0), Longitude: ptr(20.0)},
			want:    "Error:Field validation for 'Latitude' failed on the 'latitude' tag",
		},
		{
			name:    "Unknown type",
			reqBody: CreateIncidentRequest{Title: "Test", IncidentType: "landslide", Latitude: ptr(10.0), Longitude: ptr(20.0)},
			want:    "Error:Field validation for 'IncidentType' failed on the 'oneof' tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, router := newTestHandler(t)
			deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

			w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, tt.reqBody), apiKeyHeader)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestCreateIncident_Unauthorized(t *testing.T) {
	reqBody := CreateIncidentRequest{Title: "Test", IncidentType: "flood", Latitude: ptr(10.0), Longitude: ptr(20.0)}

	t.Run("Missing key", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, reqBody))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "API key required")
	})

	t.Run("Wrong key", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, reqBody), map[string]string{"X-API-Key": "wrong"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid API key")
	})

	t.Run("Bearer token accepted", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, reqBody), map[string]string{"Authorization": "Bearer test-api-key"})

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestCreateIncident_ServiceError(t *testing.T) {
	deps, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{Title: "Test", IncidentType: "flood", Latitude: ptr(10.0), Longitude: ptr(20.0)}

	deps.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		Return(errors.New("failed to create incident in service")).
		Times(1)

	w := makeRequest(router, "POST", "/api/v1/incidents", jsonBody(t, reqBody), apiKeyHeader)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestGetIncident_Success(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()
	expectedIncident := &models.Incident{
		ID:                   incidentID,
		Title:                "Retrieved Incident",
		Type:                 models.IncidentTypeCritical,
		Latitude:             30.0,
		Longitude:            40.0,
		AffectedRadiusMeters: 300,
		IsActive:             true,
	}

	deps.incidents.EXPECT().GetIncident(gomock.Any(), incidentID).Return(expectedIncident, nil).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID.String()), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, expectedIncident.Title, resp.Title)
	assert.Equal(t, 300.0, resp.AffectedAreaRadius)
}

func TestGetIncident_InvalidID(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "GET", "/api/v1/incidents/invalid-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()
	serviceError := fmt.Errorf("service: could not get incident: %w", models.ErrNotFound)

	deps.incidents.EXPECT().GetIncident(gomock.Any(), incidentID).Return(nil, serviceError).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID.String()), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestGetIncident_ServiceError(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()
	serviceError := fmt.Errorf("service: could not get incident: %w", models.ErrStorage)

	deps.incidents.EXPECT().GetIncident(gomock.Any(), incidentID).Return(nil, serviceError).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID.String()), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestListIncidents_Success(t *testing.T) {
	deps, router := newTestHandler(t)
	expectedIncidents := []*models.Incident{
		{ID: uuid.New(), Title: "Incident 1", Type: models.IncidentTypeFlood, IsActive: true},
		{ID: uuid.New(), Title: "Incident 2", Type: models.IncidentTypeFlood, IsActive: true},
	}
	isActive := true
	flood := models.IncidentTypeFlood
	filter := models.IncidentFilter{IsActive: &isActive, Type: &flood}

	deps.incidents.EXPECT().ListIncidents(gomock.Any(), filter, 1, 10).Return(expectedIncidents, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents?page=1&pageSize=10&is_active=true&incident_type=flood", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, expectedIncidents[0].Title, resp[0].Title)
}

func TestListIncidents_NoFilters(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().ListIncidents(gomock.Any(), models.IncidentFilter{}, 1, 20).Return([]*models.Incident{}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListIncidents_InvalidFilter(t *testing.T) {
	deps, router := newTestHandler(t)
	deps.incidents.EXPECT().ListIncidents(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents?is_active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid is_active value")

	w = makeRequest(router, "GET", "/api/v1/incidents?incident_type=landslide", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident_type")
}

func TestListIncidents_ServiceError(t *testing.T) {
	deps, router := newTestHandler(t)
	serviceError := errors.New("failed to list incidents")

	deps.incidents.EXPECT().ListIncidents(gomock.Any(), gomock.Any(), 1, 10).Return(nil, serviceError).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents?page=1&pageSize=10", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestListActiveIncidents(t *testing.T) {
	deps, router := newTestHandler(t)
	expected := []*models.Incident{
		{ID: uuid.New(), Title: "Severe", SeverityScore: 90, IsActive: true},
		{ID: uuid.New(), Title: "Mild", SeverityScore: 20, IsActive: true},
	}

	deps.incidents.EXPECT().ListActiveIncidents(gomock.Any(), 5).Return(expected, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/active?limit=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "Severe", resp[0].Title)
}

func TestIncidentsGeoJSON(t *testing.T) {
	deps, router := newTestHandler(t)
	id := uuid.New()
	incidents := []*models.Incident{
		{ID: id, Title: "Flood", Type: models.IncidentTypeFlood, Latitude: 15.03, Longitude: 120.69, SeverityScore: 60, IsActive: true},
	}

	deps.incidents.EXPECT().ListActiveIncidents(gomock.Any(), 0).Return(incidents, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/geojson", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, id.String(), fc.Features[0].ID)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{120.69, 15.03}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "flood", fc.Features[0].Properties["incident_type"])
	assert.Equal(t, 60.0, fc.Features[0].Properties["severity_score"])
}

func TestUpdateIncident_Success(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()
	reqBody := UpdateIncidentRequest{
		SeverityScore: ptr(150.0),
		IsActive:      ptr(false),
	}

	deps.incidents.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, patch models.IncidentPatch) (*models.Incident, error) {
			assert.Nil(t, patch.Title)
			require.NotNil(t, patch.SeverityScore)
			assert.Equal(t, 150.0, *patch.SeverityScore)
			return &models.Incident{ID: id, Title: "Unchanged", SeverityScore: 100, IsActive: false}, nil
		}).Times(1)

	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/v1/incidents/%s", incidentID.String()), jsonBody(t, reqBody), apiKeyHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 100.0, resp.SeverityScore)
	assert.False(t, resp.IsActive)
}

func TestUpdateIncident_InvalidID(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PUT", "/api/v1/incidents/invalid-uuid", jsonBody(t, UpdateIncidentRequest{Title: ptr("New")}), apiKeyHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestUpdateIncident_NotFound(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()
	serviceError := fmt.Errorf("service: incident with id %s not found for update: %w", incidentID, models.ErrNotFound)

	deps.incidents.EXPECT().UpdateIncident(gomock.Any(), incidentID, gomock.Any()).Return(nil, serviceError).Times(1)

	w := makeRequest(router, "PUT", fmt.Sprintf("/api/v1/incidents/%s", incidentID.String()), jsonBody(t, UpdateIncidentRequest{Title: ptr("New")}), apiKeyHeader)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateIncident_RequiresAPIKey(t *testing.T) {
	deps, router := newTestHandler(t)
	deps.incidents.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PUT", fmt.Sprintf("/api/v1/incidents/%s", uuid.New()), jsonBody(t, UpdateIncidentRequest{Title: ptr("New")}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteIncident_Success(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()

	deps.incidents.EXPECT().DeleteIncident(gomock.Any(), incidentID).Return(nil).Times(1)

	w := makeRequest(router, "DELETE", fmt.Sprintf("/api/v1/incidents/%s", incidentID.String()), nil, apiKeyHeader)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteIncident_InvalidID(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().DeleteIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/api/v1/incidents/invalid-uuid", nil, apiKeyHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestDeleteIncident_NotFound(t *testing.T) {
	deps, router := newTestHandler(t)
	incidentID := uuid.New()

	deps.incidents.EXPECT().DeleteIncident(gomock.Any(), incidentID).Return(fmt.Errorf("delete: %w", models.ErrNotFound)).Times(1)

	w := makeRequest(router, "DELETE", fmt.Sprintf("/api/v1/incidents/%s", incidentID.String()), nil, apiKeyHeader)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClusterIncident(t *testing.T) {
	t.Run("Incident created", func(t *testing.T) {
		deps, router := newTestHandler(t)
		incident := &models.Incident{ID: uuid.New(), Title: "Critical Incident - 3 reports", Type: models.IncidentTypeCritical, SeverityScore: 60, ReportCount: 3}

		deps.reports.EXPECT().ClusterNearby(gomock.Any(), 15.0, 120.5, 500.0).Return(incident, nil).Times(1)

		w := makeRequest(router, "POST", "/api/v1/incidents/cluster", jsonBody(t, ClusterRequest{Latitude: ptr(15.0), Longitude: ptr(120.5), RadiusMeters: 500}), apiKeyHeader)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp ClusterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Clustered)
		require.NotNil(t, resp.Incident)
		assert.Equal(t, 3, resp.Incident.ReportCount)
	})

	t.Run("Not enough reports uses default radius", func(t *testing.T) {
		deps, router := newTestHandler(t)

		deps.reports.EXPECT().ClusterNearby(gomock.Any(), 15.0, 120.5, 1000.0).Return(nil, nil).Times(1)

		w := makeRequest(router, "POST", "/api/v1/incidents/cluster", jsonBody(t, ClusterRequest{Latitude: ptr(15.0), Longitude: ptr(120.5)}), apiKeyHeader)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"clustered": false}`, w.Body.String())
	})

	t.Run("Requires API key", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().ClusterNearby(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, "POST", "/api/v1/incidents/cluster", jsonBody(t, ClusterRequest{Latitude: ptr(15.0), Longitude: ptr(120.5)}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCalculateSeverity(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		want     float64
	}{
		{name: "Warning without population", query: "report_count=10&incident_type=warning", wantCode: http.StatusOK, want: 50},
		{name: "Critical capped at 100", query: "report_count=100&incident_type=critical&population=5000", wantCode: http.StatusOK, want: 100},
		{name: "Missing count", query: "incident_type=warning", wantCode: http.StatusBadRequest},
		{name: "Negative count", query: "report_count=-1&incident_type=warning", wantCode: http.StatusBadRequest},
		{name: "Unknown type", query: "report_count=1&incident_type=landslide", wantCode: http.StatusBadRequest},
		{name: "Bad population", query: "report_count=1&incident_type=info&population=many", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := newTestHandler(t)

			w := makeRequest(router, "GET", "/api/v1/incidents/severity?"+tt.query, nil)

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				var resp SeverityResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.InDelta(t, tt.want, resp.SeverityScore, 1e-9)
			}
		})
	}
}

func TestCheckLocation_Success(t *testing.T) {
	deps, router := newTestHandler(t)
	reqBody := LocationCheckRequest{UserID: "user-1", Latitude: ptr(15.0), Longitude: ptr(120.5)}
	incidents := []*models.Incident{{ID: uuid.New(), Title: "Flood", IsActive: true}}

	deps.incidents.EXPECT().CheckLocation(gomock.Any(), "user-1", 15.0, 120.5).Return(incidents, nil).Times(1)

	w := makeRequest(router, "POST", "/api/v1/location/check", jsonBody(t, reqBody))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestCheckLocation_ValidationError(t *testing.T) {
	deps, router := newTestHandler(t)
	deps.incidents.EXPECT().CheckLocation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/location/check", jsonBody(t, LocationCheckRequest{Latitude: ptr(15.0), Longitude: ptr(120.5)}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "'UserID' failed on the 'required' tag")
}

func TestCheckLocation_ServiceError(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().CheckLocation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/location/check", jsonBody(t, LocationCheckRequest{UserID: "u", Latitude: ptr(15.0), Longitude: ptr(120.5)}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetStats_Success(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().GetStats(gomock.Any()).Return(42, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_count": 42}`, w.Body.String())
}

func TestGetStats_ServiceError(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.incidents.EXPECT().GetStats(gomock.Any()).Return(0, errors.New("db down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/stats", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}
