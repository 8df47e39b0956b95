package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/shenikar/bantaybayan/internal/proximity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func validReportRequest() CreateReportRequest {
	return CreateReportRequest{
		UserID:       "resident-7",
		IncidentType: "critical",
		Latitude:     ptr(15.0),
		Longitude:    ptr(120.5),
		Description:  "Road impassable",
	}
}

func TestCreateReport_WithClusteredIncident(t *testing.T) {
	deps, router := newTestHandler(t)
	reportID := uuid.New()
	incident := &models.Incident{ID: uuid.New(), Title: "Critical Incident - 3 reports", Type: models.IncidentTypeCritical, ReportCount: 3}

	deps.reports.EXPECT().
		CreateReport(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.Report) (*models.Incident, error) {
			assert.Equal(t, models.ReportTypeCritical, r.Type)
			assert.Equal(t, "resident-7", r.UserID)
			r.ID = reportID
			return incident, nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/reports", jsonBody(t, validReportRequest()))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp CreateReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, reportID, resp.ID)
	assert.Equal(t, "critical", resp.IncidentType)
	require.NotNil(t, resp.ClusteredIncident)
	assert.Equal(t, incident.ID, resp.ClusteredIncident.ID)
}

func TestCreateReport_WithoutIncident(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.reports.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	w := makeRequest(router, "POST", "/api/v1/reports", jsonBody(t, validReportRequest()))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "clustered_incident")
}

func TestCreateReport_ValidationError(t *testing.T) {
	deps, router := newTestHandler(t)
	deps.reports.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Times(0)

	req := validReportRequest()
	req.IncidentType = "flood"
	w := makeRequest(router, "POST", "/api/v1/reports", jsonBody(t, req))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "'IncidentType' failed on the 'oneof' tag")

	req = validReportRequest()
	req.Longitude = ptr(181.0)
	w = makeRequest(router, "POST", "/api/v1/reports", jsonBody(t, req))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "'Longitude' failed on the 'longitude' tag")
}

func TestCreateReport_ServiceError(t *testing.T) {
	deps, router := newTestHandler(t)

	deps.reports.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/reports", jsonBody(t, validReportRequest()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateReport_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	deps, router := newTestHandlerWithConfig(t, cfg)

	deps.reports.EXPECT().CreateReport(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	body, err := json.Marshal(validReportRequest())
	require.NoError(t, err)

	first := makeRequest(router, "POST", "/api/v1/reports", bytes.NewBuffer(body))
	second := makeRequest(router, "POST", "/api/v1/reports", bytes.NewBuffer(body))

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "rate limit exceeded")
}

func TestListReports(t *testing.T) {
	deps, router := newTestHandler(t)
	warning := models.ReportTypeWarning
	reports := []*models.Report{
		{ID: uuid.New(), Type: models.ReportTypeWarning},
		{ID: uuid.New(), Type: models.ReportTypeWarning},
	}

	deps.reports.EXPECT().ListReports(gomock.Any(), models.ReportFilter{Type: &warning}, 2, 5).Return(reports, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/reports?page=2&pageSize=5&incident_type=warning", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestListReports_InvalidType(t *testing.T) {
	deps, router := newTestHandler(t)
	deps.reports.EXPECT().ListReports(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/reports?incident_type=flood", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportsGeoJSON(t *testing.T) {
	deps, router := newTestHandler(t)
	reports := []*models.Report{{ID: uuid.New(), Type: models.ReportTypeInfo, Latitude: 15.1, Longitude: 120.6, UpvoteCount: 2}}

	deps.reports.EXPECT().ListReports(gomock.Any(), models.ReportFilter{}, 1, 20).Return(reports, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/reports/geojson", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var fc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
	features := fc["features"].([]any)
	require.Len(t, features, 1)
	geometry := features[0].(map[string]any)["geometry"].(map[string]any)
	assert.Equal(t, []any{120.6, 15.1}, geometry["coordinates"])
}

func TestGetReportStats(t *testing.T) {
	deps, router := newTestHandler(t)
	stats := &models.ReportStats{InfoCount: 1, WarningCount: 2, CriticalCount: 3, TotalCount: 6, Date: "Nov 15, 2024"}

	deps.reports.EXPECT().GetStats(gomock.Any()).Return(stats, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/reports/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"info_count":1,"warning_count":2,"critical_count":3,"total_count":6,"date":"Nov 15, 2024"}`, w.Body.String())
}

func TestGetReport(t *testing.T) {
	deps, router := newTestHandler(t)
	found := uuid.New()
	missing := uuid.New()

	deps.reports.EXPECT().GetReport(gomock.Any(), found).Return(&models.Report{ID: found, Type: models.ReportTypeInfo}, nil).Times(1)
	deps.reports.EXPECT().GetReport(gomock.Any(), missing).Return(nil, fmt.Errorf("get: %w", models.ErrNotFound)).Times(1)

	w := makeRequest(router, "GET", "/api/v1/reports/"+found.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, "GET", "/api/v1/reports/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "report not found")

	w = makeRequest(router, "GET", "/api/v1/reports/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid report ID")
}

func TestUpdateReport(t *testing.T) {
	deps, router := newTestHandler(t)
	id := uuid.New()

	deps.reports.EXPECT().
		UpdateReport(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, patch models.ReportPatch) (*models.Report, error) {
			assert.Nil(t, patch.Type)
			assert.Nil(t, patch.Description)
			require.NotNil(t, patch.IsVerified)
			assert.True(t, *patch.IsVerified)
			return &models.Report{ID: id, Type: models.ReportTypeInfo, IsVerified: true}, nil
		}).Times(1)

	w := makeRequest(router, "PUT", "/api/v1/reports/"+id.String(), bytes.NewBufferString(`{"is_verified": true}`))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsVerified)
}

func TestUpdateReport_InvalidType(t *testing.T) {
	deps, router := newTestHandler(t)
	deps.reports.EXPECT().UpdateReport(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PUT", "/api/v1/reports/"+uuid.NewString(), bytes.NewBufferString(`{"incident_type": "flood"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReport(t *testing.T) {
	deps, router := newTestHandler(t)
	id := uuid.New()

	deps.reports.EXPECT().DeleteReport(gomock.Any(), id).Return(nil).Times(1)

	w := makeRequest(router, "DELETE", "/api/v1/reports/"+id.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNearbyReports(t *testing.T) {
	near := &models.Report{ID: uuid.New(), Type: models.ReportTypeCritical, Latitude: 15.0005, Longitude: 120.5}
	far := &models.Report{ID: uuid.New(), Type: models.ReportTypeCritical, Latitude: 15.005, Longitude: 120.5}
	results := []proximity.Result{{Report: near, DistanceMeters: 55.6}, {Report: far, DistanceMeters: 556}}

	t.Run("Default radius", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().
			FindNearby(gomock.Any(), proximity.Query{Latitude: 15, Longitude: 120.5, RadiusMeters: 100}).
			Return(results[:1], nil).Times(1)

		w := makeRequest(router, "GET", "/api/v1/reports/nearby/15/120.5", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp []NearbyReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, near.ID, resp[0].ID)
		assert.Equal(t, 55.6, resp[0].DistanceMeters)
	})

	t.Run("Radius and type filter", func(t *testing.T) {
		deps, router := newTestHandler(t)
		critical := models.ReportTypeCritical
		deps.reports.EXPECT().
			FindNearby(gomock.Any(), proximity.Query{Latitude: 15, Longitude: 120.5, RadiusMeters: 1000, Type: &critical}).
			Return(results, nil).Times(1)

		w := makeRequest(router, "GET", "/api/v1/reports/nearby/15/120.5?radius=1000&incident_type=critical", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp []NearbyReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, far.ID, resp[1].ID)
	})

	t.Run("Invalid input", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().FindNearby(gomock.Any(), gomock.Any()).Times(0)

		for _, url := range []string{
			"/api/v1/reports/nearby/95/120.5",
			"/api/v1/reports/nearby/15/abc",
			"/api/v1/reports/nearby/15/120.5?radius=-5",
			"/api/v1/reports/nearby/15/120.5?incident_type=flood",
		} {
			w := makeRequest(router, "GET", url, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, url)
		}
	})
}

func TestUpvoteReport(t *testing.T) {
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().UpvoteReport(gomock.Any(), id, "user-1").Return(&models.Report{ID: id, UpvoteCount: 1}, nil).Times(1)

		w := makeRequest(router, "POST", "/api/v1/reports/"+id.String()+"/upvote?user_id=user-1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.UpvoteCount)
	})

	t.Run("Duplicate", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().UpvoteReport(gomock.Any(), id, "user-1").Return(nil, fmt.Errorf("upvote: %w", models.ErrAlreadyUpvoted)).Times(1)

		w := makeRequest(router, "POST", "/api/v1/reports/"+id.String()+"/upvote?user_id=user-1", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already upvoted")
	})

	t.Run("Missing user", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().UpvoteReport(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, "POST", "/api/v1/reports/"+id.String()+"/upvote", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "user_id is required")
	})

	t.Run("Report not found", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().UpvoteReport(gomock.Any(), id, "user-1").Return(nil, fmt.Errorf("upvote: %w", models.ErrNotFound)).Times(1)

		w := makeRequest(router, "POST", "/api/v1/reports/"+id.String()+"/upvote?user_id=user-1", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRemoveUpvote(t *testing.T) {
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().RemoveUpvote(gomock.Any(), id, "user-1").Return(&models.Report{ID: id, UpvoteCount: 0}, nil).Times(1)

		w := makeRequest(router, "DELETE", "/api/v1/reports/"+id.String()+"/upvote?user_id=user-1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Not upvoted", func(t *testing.T) {
		deps, router := newTestHandler(t)
		deps.reports.EXPECT().RemoveUpvote(gomock.Any(), id, "user-1").Return(nil, fmt.Errorf("remove: %w", models.ErrNotUpvoted)).Times(1)

		w := makeRequest(router, "DELETE", "/api/v1/reports/"+id.String()+"/upvote?user_id=user-1", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "have not upvoted")
	})
}
