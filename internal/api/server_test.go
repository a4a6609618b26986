package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonamobi/zonamobi/internal/cache"
	"github.com/zonamobi/zonamobi/internal/catalog"
	"github.com/zonamobi/zonamobi/internal/config"
	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/scheduler"
	"github.com/zonamobi/zonamobi/internal/testutil"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

type testServer struct {
	*Server
	up *testutil.Upstream
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	up := testutil.NewUpstream(t, testutil.AllRoutes())
	client := upstream.NewClient(config.UpstreamConfig{BaseURL: up.URL, Timeout: 5}, testutil.NopLogger())

	tdb := testutil.NewTestDB(t)
	responses, err := cache.Open(context.Background(), tdb.DB, cache.Config{TTL: time.Hour}, testutil.NopLogger())
	require.NoError(t, err)

	svc, err := catalog.NewService(config.Default().Catalog, client, responses, testutil.NopLogger())
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	sched, err := scheduler.New(testutil.NopLogger())
	require.NoError(t, err)
	require.NoError(t, scheduler.RegisterCacheSweepTask(sched, svc, "0 * * * *", testutil.NopLogger()))
	t.Cleanup(func() { _ = sched.Stop() })

	return &testServer{Server: NewServer(svc, sched, testutil.NopLogger()), up: up}
}

func (ts *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGetFilters(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/filters")
	require.Equal(t, http.StatusOK, rec.Code)

	filters := decode[[]content.Filter](t, rec)
	require.Len(t, filters, 5)
	assert.Equal(t, content.FilterSort, filters[4].Key)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestListMovies(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/movies?page=2")
	require.Equal(t, http.StatusOK, rec.Code)

	l := decode[content.Listing](t, rec)
	assert.Equal(t, 3, l.Count)
	assert.Equal(t, 2, l.Page)
	assert.Equal(t, "inception", l.Items[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/movies?page=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMovies_Filtered(t *testing.T) {
	ts := setupTestServer(t)
	ts.up.Handle("/movies/filter/genre-drama/year-2020", http.StatusOK, testutil.ListingJSON)

	rec := ts.do(t, http.MethodGet, "/api/v1/movies?genre=drama&year=2020")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ts.up.Hits("/movies/filter/genre-drama/year-2020"))
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/search?keyword=dark")
	require.Equal(t, http.StatusOK, rec.Code)
	l := decode[content.Listing](t, rec)
	assert.True(t, l.Secondary)
	assert.Equal(t, 1, l.Count)

	rec = ts.do(t, http.MethodGet, "/api/v1/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeriesRoutes(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/tvseries/dark")
	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[content.ContentItem](t, rec)
	assert.Equal(t, content.TypeSeries, series.Type)
	assert.Equal(t, 2, series.SeriesContext.SeasonCount)

	rec = ts.do(t, http.MethodGet, "/api/v1/tvseries/dark/seasons")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[content.Listing](t, rec).Count)

	rec = ts.do(t, http.MethodGet, "/api/v1/tvseries/dark/seasons/1")
	require.Equal(t, http.StatusOK, rec.Code)
	episodes := decode[content.Listing](t, rec)
	assert.Equal(t, 3, episodes.Count)
	assert.Equal(t, 1, episodes.Season)

	rec = ts.do(t, http.MethodGet, "/api/v1/tvseries/dark/seasons/2/details")
	require.Equal(t, http.StatusOK, rec.Code)
	season := decode[content.ContentItem](t, rec)
	assert.Equal(t, content.TypeSeason, season.Type)
	assert.Equal(t, 2, season.SeriesContext.EpisodeCount)

	rec = ts.do(t, http.MethodGet, "/api/v1/tvseries/dark/seasons/1/episodes/3")
	require.Equal(t, http.StatusOK, rec.Code)
	episode := decode[content.ContentItem](t, rec)
	assert.Equal(t, "Прошлое и настоящее", episode.Title)
	assert.Equal(t, 3, *episode.SeriesContext.Episode)
}

func TestErrorMapping(t *testing.T) {
	ts := setupTestServer(t)
	ts.up.Handle("/movies/broken", http.StatusOK, `{"movie": {"name_rus": "Без id"}}`)
	ts.up.Handle("/tvseries/down", http.StatusServiceUnavailable, ``)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/movies/missing", http.StatusNotFound},
		{"/api/v1/movies/broken", http.StatusBadGateway},
		{"/api/v1/tvseries/down", http.StatusBadGateway},
		{"/api/v1/tvseries/dark/seasons/0", http.StatusBadRequest},
		{"/api/v1/tvseries/dark/seasons/x", http.StatusBadRequest},
		{"/api/v1/tvseries/dark/seasons/1/episodes/9", http.StatusNotFound},
		{"/api/v1/play?type=podcast&id=x", http.StatusBadRequest},
		{"/api/v1/play?type=episode&id=dark&season=1", http.StatusBadRequest},
		{"/api/v1/video/404", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tt.target)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPlay(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/play?type=movie&id=inception&quality=1")
	require.Equal(t, http.StatusOK, rec.Code)
	pb := decode[catalog.Playback](t, rec)
	assert.Equal(t, "http://cdn.test/inception-hq.mp4", pb.URL)
	assert.Equal(t, "inception", pb.Item.ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/play?type=episode&id=dark&season=1&episode=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://cdn.test/ep1002-lq.mp4", decode[catalog.Playback](t, rec).URL)

	rec = ts.do(t, http.MethodGet, "/api/v1/play?type=movie&id=inception&quality=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrailerAndVideo(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/trailer?type=tvseries&id=dark")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://cdn.test/dark-trailer.mp4", decode[map[string]string](t, rec)["url"])

	rec = ts.do(t, http.MethodGet, "/api/v1/video/555?quality=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://cdn.test/inception-lq.mp4", decode[map[string]string](t, rec)["url"])
}

func TestClearCache(t *testing.T) {
	ts := setupTestServer(t)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/movies/inception").Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/tvseries/dark").Code)

	rec := ts.do(t, http.MethodDelete, "/api/v1/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[map[string]int64](t, rec)["removed"])
}

func TestTasks(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decode[[]scheduler.TaskInfo](t, rec)
	require.Len(t, tasks, 1)
	assert.Equal(t, scheduler.CacheSweepTaskID, tasks[0].ID)

	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/"+scheduler.CacheSweepTaskID+"/run")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/unknown/run")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/tasks/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
