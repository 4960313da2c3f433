package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
)

type fakeAnalyticsRepo struct {
	core.Repository // sólo MonthlyLogCounts se usa en estos tests

	months     []core.MonthCount
	gotSince   time.Time
	gotAccount string
}

func (f *fakeAnalyticsRepo) MonthlyLogCounts(_ context.Context, accountID string, since time.Time) ([]core.MonthCount, error) {
	f.gotAccount = accountID
	f.gotSince = since
	return f.months, nil
}

func getAnalytics(h *DashboardHandler, period string) *httptest.ResponseRecorder {
	url := "/api/dashboard/analytics"
	if period != "" {
		url += "?period=" + period
	}
	req := httptest.NewRequest(http.MethodGet, url, nil)
	ctx := context.WithValue(req.Context(), claimsKey, &token.Claims{AccountID: "acc-1"})
	rec := httptest.NewRecorder()
	h.Analytics(rec, req.WithContext(ctx))
	return rec
}

func TestAnalyticsSince_Periods(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

	period, since := analyticsSince("7days", now)
	require.Equal(t, "7days", period)
	require.Equal(t, now.AddDate(0, 0, -7), since)

	period, since = analyticsSince("30days", now)
	require.Equal(t, "30days", period)
	require.Equal(t, now.AddDate(0, 0, -30), since)

	// Cualquier otra cosa cae al default: primer día del mes de hace 6 meses.
	for _, p := range []string{"", "6months", "whatever"} {
		period, since = analyticsSince(p, now)
		require.Equal(t, "6months", period)
		require.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), since)
	}
}

func TestAnalyticsEndpoint_ReturnsMonthlySeries(t *testing.T) {
	t.Parallel()

	repo := &fakeAnalyticsRepo{months: []core.MonthCount{
		{Name: "Jun", Total: 12},
		{Name: "Jul", Total: 30},
		{Name: "Aug", Total: 5},
	}}
	h := &DashboardHandler{Repo: repo}

	rec := getAnalytics(h, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "acc-1", repo.gotAccount)
	require.Equal(t, 1, repo.gotSince.Day(), "la serie default arranca en un mes completo")

	var out struct {
		Analytics struct {
			ChartData []core.MonthCount `json:"chart_data"`
			Period    string            `json:"period"`
			Total     int64             `json:"total_emails"`
		} `json:"analytics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "6months", out.Analytics.Period)
	require.Len(t, out.Analytics.ChartData, 3)
	require.Equal(t, int64(47), out.Analytics.Total)
}

func TestAnalyticsEndpoint_EmptySeriesIsNotNull(t *testing.T) {
	t.Parallel()

	h := &DashboardHandler{Repo: &fakeAnalyticsRepo{}}
	rec := getAnalytics(h, "7days")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Analytics struct {
			ChartData []core.MonthCount `json:"chart_data"`
			Period    string            `json:"period"`
			Total     int64             `json:"total_emails"`
		} `json:"analytics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "7days", out.Analytics.Period)
	require.NotNil(t, out.Analytics.ChartData)
	require.Zero(t, out.Analytics.Total)
}
