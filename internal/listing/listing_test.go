package listing

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonamobi/zonamobi/internal/cache"
	"github.com/zonamobi/zonamobi/internal/config"
	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/normalize"
	"github.com/zonamobi/zonamobi/internal/testutil"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

type fixture struct {
	up    *testutil.Upstream
	cache *cache.ResponseCache
	asm   *Assembler
}

func newFixture(t *testing.T, cfg Config, withCache bool) *fixture {
	t.Helper()

	up := testutil.NewUpstream(t, testutil.AllRoutes())
	client := upstream.NewClient(config.UpstreamConfig{BaseURL: up.URL, Timeout: 5}, testutil.NopLogger())

	f := &fixture{up: up}
	var store Store
	if withCache {
		tdb := testutil.NewTestDB(t)
		rc, err := cache.Open(context.Background(), tdb.DB, cache.Config{TTL: 48 * time.Hour}, testutil.NopLogger())
		require.NoError(t, err)
		f.cache = rc
		store = rc
	}

	f.asm = New(client, store, normalize.New(content.RatingIMDb, "Episode", "Season"), cfg, testutil.NopLogger())
	return f
}

func ids(l *content.Listing) []string {
	var out []string
	for item := range l.All() {
		out = append(out, item.ID)
	}
	return out
}

func TestList_Movies(t *testing.T) {
	f := newFixture(t, Config{}, true)

	l, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeMovie})
	require.NoError(t, err)

	assert.Equal(t, 3, l.Count)
	assert.Equal(t, "Фильмы онлайн", l.Title)
	assert.Equal(t, 1, l.Page)
	assert.Equal(t, 3, l.TotalPages)
	assert.False(t, l.HasPrev())
	assert.True(t, l.HasNext())
	assert.Equal(t, []string{"inception", "dark", "1917"}, ids(l), "arrival order is kept")
	assert.Equal(t, content.TypeSeries, l.Items[1].Type)
	assert.Equal(t, 1, f.up.Hits(testutil.PathMovies))
	assert.Equal(t, 1, f.up.TotalHits(), "no detail requests without hydration")
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t, Config{}, false)

	l, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeSeries, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, l.Page)
	assert.True(t, l.HasPrev())
	assert.False(t, l.HasNext())
}

func TestList_UpdatesBypassesFilters(t *testing.T) {
	f := newFixture(t, Config{}, false)

	_, err := f.asm.List(context.Background(), content.ContentSelector{
		Type:    content.TypeMovie,
		Filters: content.FilterValues{Genre: "drama", Rating: "7", Sort: content.SortUpdates},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits("/updates/movies"))
}

func TestList_FilteredPath(t *testing.T) {
	f := newFixture(t, Config{}, false)
	f.up.Handle("/movies/filter/genre-drama/year-90s/sort-rating", http.StatusOK, testutil.ListingJSON)

	_, err := f.asm.List(context.Background(), content.ContentSelector{
		Type:    content.TypeMovie,
		Filters: content.FilterValues{Genre: "drama", Year: "90s", Sort: content.SortRating},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits("/movies/filter/genre-drama/year-90s/sort-rating"))
}

func TestList_MissingHeading(t *testing.T) {
	f := newFixture(t, Config{}, false)
	f.up.Handle(testutil.PathMovies, http.StatusOK, `{"items":[]}`)

	_, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeMovie})
	var malformed *content.MalformedUpstreamError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "title_h1", malformed.MissingField)
}

func TestList_NetworkError(t *testing.T) {
	f := newFixture(t, Config{}, false)
	f.up.Handle(testutil.PathMovies, http.StatusBadGateway, ``)

	_, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeMovie})
	status, ok := upstream.IsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestList_Search(t *testing.T) {
	f := newFixture(t, Config{}, false)

	l, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeSearch, Keyword: "dark"})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Count)
	assert.Equal(t, "dark", l.Title)
	assert.True(t, l.Secondary)
	assert.Equal(t, 1, l.TotalPages)
	assert.False(t, l.HasNext())
}

func TestList_SearchEmpty(t *testing.T) {
	f := newFixture(t, Config{}, false)

	for _, keyword := range []string{"nothing", "unknown-keyword"} {
		l, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeSearch, Keyword: keyword})
		require.NoError(t, err, keyword)
		assert.Equal(t, 0, l.Count)
		assert.Empty(t, l.Items)
	}
}

func TestList_InvalidSelector(t *testing.T) {
	f := newFixture(t, Config{}, false)

	for _, sel := range []content.ContentSelector{
		{Type: content.TypeSearch},
		{Type: content.TypeSeason},
		{Type: content.TypeEpisode, ID: "dark"},
		{Type: "podcast"},
	} {
		_, err := f.asm.List(context.Background(), sel)
		assert.ErrorIs(t, err, content.ErrInvalidSelector)
	}
	assert.Equal(t, 0, f.up.TotalHits())
}

func TestList_Seasons(t *testing.T) {
	f := newFixture(t, Config{}, true)
	ctx := context.Background()

	l, err := f.asm.List(ctx, content.ContentSelector{Type: content.TypeSeason, ID: "dark"})
	require.NoError(t, err)

	assert.Equal(t, 2, l.Count)
	assert.Equal(t, "Тьма", l.Title)
	require.Len(t, l.Items, 2)
	for i, item := range l.Items {
		assert.Equal(t, content.TypeSeason, item.Type)
		assert.Equal(t, i+1, *item.SeriesContext.Season)
	}
	assert.Equal(t, 3, l.Items[0].SeriesContext.EpisodeCount)
	assert.Equal(t, 2, l.Items[1].SeriesContext.EpisodeCount)
	assert.Equal(t, 0, f.up.Hits(testutil.PathSeason1), "seasons are not fetched individually")

	_, err = f.asm.List(ctx, content.ContentSelector{Type: content.TypeSeason, ID: "dark"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeriesDetail), "series payload served from cache")
}

func TestList_SeasonsNegativeCount(t *testing.T) {
	f := newFixture(t, Config{LoadDetails: true, Workers: 2}, false)
	f.up.Handle("/tvseries/broken", http.StatusOK, `{"serial":{"name_id":"broken","serial":true},"seasons":{"count":-1}}`)

	l, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeSeason, ID: "broken"})
	assert.Nil(t, l)
	var malformed *content.MalformedUpstreamError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, f.up.TotalHits())
}

func TestList_SeasonsHydrated(t *testing.T) {
	f := newFixture(t, Config{LoadDetails: true, Workers: 2}, true)
	ctx := context.Background()

	l, err := f.asm.List(ctx, content.ContentSelector{Type: content.TypeSeason, ID: "dark"})
	require.NoError(t, err)
	require.Len(t, l.Items, 2)
	assert.Equal(t, "2019-06-21", l.Items[1].PremiereDate)
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeason1))
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeason2))

	n, err := f.cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "root and both seasons cached")

	_, err = f.asm.List(ctx, content.ContentSelector{Type: content.TypeSeason, ID: "dark"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeason1))
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeason2))
}

func TestList_Episodes(t *testing.T) {
	f := newFixture(t, Config{}, true)

	l, err := f.asm.List(context.Background(), content.ContentSelector{Type: content.TypeEpisode, ID: "dark", Season: content.Int(1)})
	require.NoError(t, err)

	assert.Equal(t, 3, l.Count)
	assert.Equal(t, 1, l.Season)
	assert.Equal(t, "Тьма", l.Title)

	var episodes []int
	for item := range l.All() {
		episodes = append(episodes, *item.SeriesContext.Episode)
	}
	assert.Equal(t, []int{1, 2, 3}, episodes)
	assert.Equal(t, "Season 1 Episode 2", l.Items[1].Title)
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeason1))
}

func TestList_RowHydration(t *testing.T) {
	f := newFixture(t, Config{LoadDetails: true, Workers: 3}, true)
	ctx := context.Background()

	l, err := f.asm.List(ctx, content.ContentSelector{Type: content.TypeMovie})
	require.NoError(t, err)

	assert.Equal(t, []string{"inception", "dark", "1917"}, ids(l))
	assert.NotEmpty(t, l.Items[0].Cast, "hydrated from detail")
	assert.Equal(t, "Кристофер Нолан", l.Items[0].Director)
	require.NotNil(t, l.Items[1].SeriesContext)
	assert.Equal(t, 2, l.Items[1].SeriesContext.SeasonCount)
	assert.Empty(t, l.Items[2].Cast, "missing detail falls back to the listing row")
	assert.Equal(t, "1917", l.Items[2].Title)

	n, err := f.cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.asm.List(ctx, content.ContentSelector{Type: content.TypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 1, f.up.Hits(testutil.PathMovieDetail))
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeriesDetail))
	assert.Equal(t, 2, f.up.Hits("/movies/1917"), "absent titles are not cached")
}

func TestDetails_MovieCached(t *testing.T) {
	f := newFixture(t, Config{}, true)
	ctx := context.Background()
	sel := content.ContentSelector{Type: content.TypeMovie, ID: "inception"}

	first, err := f.asm.Details(ctx, sel)
	require.NoError(t, err)
	second, err := f.asm.Details(ctx, sel)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Начало", first.Title)
	assert.Equal(t, 1, f.up.Hits(testutil.PathMovieDetail))
}

func TestDetails_Episode(t *testing.T) {
	f := newFixture(t, Config{}, true)

	item, err := f.asm.Details(context.Background(), content.ContentSelector{
		Type: content.TypeEpisode, ID: "dark", Season: content.Int(2), Episode: content.Int(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Начало и конец", item.Title)
	assert.Equal(t, "2001", item.PlaybackRef)
	assert.Equal(t, 2, *item.SeriesContext.Season)
	assert.Equal(t, 1, *item.SeriesContext.Episode)
	assert.Equal(t, 1, f.up.Hits(testutil.PathSeason2))
}

func TestDetails_NotFound(t *testing.T) {
	f := newFixture(t, Config{}, true)
	ctx := context.Background()
	sel := content.ContentSelector{Type: content.TypeMovie, ID: "missing"}

	_, err := f.asm.Details(ctx, sel)
	assert.ErrorIs(t, err, content.ErrNotFound)
	_, err = f.asm.Details(ctx, sel)
	assert.ErrorIs(t, err, content.ErrNotFound)
	assert.Equal(t, 2, f.up.Hits("/movies/missing"))
}

func TestDetails_SeasonRequiresNumber(t *testing.T) {
	f := newFixture(t, Config{}, false)
	_, err := f.asm.Details(context.Background(), content.ContentSelector{Type: content.TypeSeason, ID: "dark"})
	assert.ErrorIs(t, err, content.ErrInvalidSelector)
}

func TestDetails_EpisodeRequiresNumber(t *testing.T) {
	f := newFixture(t, Config{}, false)
	_, err := f.asm.Details(context.Background(), content.ContentSelector{Type: content.TypeEpisode, ID: "dark", Season: content.Int(1)})
	assert.ErrorIs(t, err, content.ErrInvalidSelector)
	assert.Equal(t, 0, f.up.TotalHits())
}

func TestFetch_CorruptCacheEntryRefetches(t *testing.T) {
	f := newFixture(t, Config{}, true)
	ctx := context.Background()

	require.NoError(t, f.cache.Put(ctx, "inception", 0, []byte(`not json`)))

	d, err := f.asm.Fetch(ctx, content.ContentSelector{Type: content.TypeMovie, ID: "inception"})
	require.NoError(t, err)
	require.NotNil(t, d.Movie)
	assert.Equal(t, 1, f.up.Hits(testutil.PathMovieDetail))

	body, ok, err := f.cache.Get(ctx, "inception", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, slices.Equal([]byte(testutil.MovieDetailJSON), body))
}
