package proximity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/bantaybayan/internal/geo"
	"github.com/shenikar/bantaybayan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReport(t models.ReportType, lat, lon float64) *models.Report {
	return &models.Report{ID: uuid.New(), Type: t, Latitude: lat, Longitude: lon}
}

type fakeSource struct {
	reports []*models.Report
	err     error
	gotType *models.ReportType
}

func (f *fakeSource) ListAllReports(_ context.Context, reportType *models.ReportType) ([]*models.Report, error) {
	f.gotType = reportType
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Report, 0, len(f.reports))
	for _, r := range f.reports {
		if reportType == nil || r.Type == *reportType {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestFilter_EmptyCandidates(t *testing.T) {
	results := Filter(Query{Latitude: 15, Longitude: 120, RadiusMeters: 1000}, nil)

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFilter_WithinRadiusSortedByDistance(t *testing.T) {
	far := newReport(models.ReportTypeInfo, 15.0050, 120.5)      // ~556 м
	near := newReport(models.ReportTypeWarning, 15.0005, 120.5)  // ~56 м
	outside := newReport(models.ReportTypeCritical, 15.02, 120.5) // ~2.2 км
	middle := newReport(models.ReportTypeInfo, 15.0, 120.5025)   // ~268 м
	candidates := []*models.Report{far, near, outside, middle}

	q := Query{Latitude: 15.0, Longitude: 120.5, RadiusMeters: 1000}
	results := Filter(q, candidates)

	require.Len(t, results, 3)
	assert.Equal(t, near.ID, results[0].Report.ID)
	assert.Equal(t, middle.ID, results[1].Report.ID)
	assert.Equal(t, far.ID, results[2].Report.ID)
	for i, r := range results {
		assert.LessOrEqual(t, r.DistanceMeters, q.RadiusMeters)
		assert.InDelta(t, geo.Distance(q.Latitude, q.Longitude, r.Report.Latitude, r.Report.Longitude), r.DistanceMeters, 1e-9)
		if i > 0 {
			assert.GreaterOrEqual(t, r.DistanceMeters, results[i-1].DistanceMeters)
		}
	}

	// входной слайс не изменился
	assert.Equal(t, []*models.Report{far, near, outside, middle}, candidates)
}

func TestFilter_TiesKeepScanOrder(t *testing.T) {
	a := newReport(models.ReportTypeInfo, 15.001, 120.5)
	b := newReport(models.ReportTypeInfo, 15.001, 120.5)
	c := newReport(models.ReportTypeInfo, 15.001, 120.5)

	results := Filter(Query{Latitude: 15, Longitude: 120.5, RadiusMeters: 500}, []*models.Report{b, c, a})

	require.Len(t, results, 3)
	assert.Equal(t, []*models.Report{b, c, a}, Reports(results))
}

func TestFilter_TypeFilter(t *testing.T) {
	critical := models.ReportTypeCritical
	r1 := newReport(models.ReportTypeInfo, 15.0, 120.5)
	r2 := newReport(models.ReportTypeCritical, 15.0001, 120.5)

	results := Filter(Query{Latitude: 15, Longitude: 120.5, RadiusMeters: 100, Type: &critical}, []*models.Report{r1, r2})

	require.Len(t, results, 1)
	assert.Equal(t, r2.ID, results[0].Report.ID)
}

func TestFilter_RadiusBoundaryInclusive(t *testing.T) {
	r := newReport(models.ReportTypeInfo, 15.001, 120.5)
	d := geo.Distance(15, 120.5, r.Latitude, r.Longitude)

	results := Filter(Query{Latitude: 15, Longitude: 120.5, RadiusMeters: d}, []*models.Report{r})

	assert.Len(t, results, 1)
}

func TestScanFinder_Nearby(t *testing.T) {
	warning := models.ReportTypeWarning
	source := &fakeSource{reports: []*models.Report{
		newReport(models.ReportTypeWarning, 15.0, 120.5),
		newReport(models.ReportTypeInfo, 15.0, 120.5),
		newReport(models.ReportTypeWarning, 16.0, 120.5),
	}}
	finder := NewScanFinder(source)

	results, err := finder.Nearby(context.Background(), Query{Latitude: 15, Longitude: 120.5, RadiusMeters: 100, Type: &warning})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.ReportTypeWarning, results[0].Report.Type)
	assert.Equal(t, &warning, source.gotType)
}

func TestScanFinder_SourceError(t *testing.T) {
	finder := NewScanFinder(&fakeSource{err: errors.New("db down")})

	results, err := finder.Nearby(context.Background(), Query{RadiusMeters: 100})

	require.Error(t, err)
	assert.Nil(t, results)
	assert.ErrorContains(t, err, "db down")
}
