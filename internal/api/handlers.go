package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zonamobi/zonamobi/internal/catalog"
	"github.com/zonamobi/zonamobi/internal/content"
)

// Handlers serves the catalog operations.
type Handlers struct {
	service *catalog.Service
}

// NewHandlers creates catalog handlers.
func NewHandlers(service *catalog.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the catalog routes on the /api/v1 group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/filters", h.GetFilters)
	g.GET("/search", h.Search)

	g.GET("/movies", h.ListTitles(content.TypeMovie))
	g.GET("/movies/:id", h.GetMovie)

	g.GET("/tvseries", h.ListTitles(content.TypeSeries))
	g.GET("/tvseries/:id", h.GetSeries)
	g.GET("/tvseries/:id/seasons", h.ListSeasons)
	g.GET("/tvseries/:id/seasons/:season", h.ListEpisodes)
	g.GET("/tvseries/:id/seasons/:season/details", h.GetSeason)
	g.GET("/tvseries/:id/seasons/:season/episodes/:episode", h.GetEpisode)

	g.GET("/play", h.Play)
	g.GET("/trailer", h.Trailer)
	g.GET("/video/:playbackId", h.ResolveVideo)

	g.DELETE("/cache", h.ClearCache)
}

// GetFilters returns the listing filters.
// GET /api/v1/filters
func (h *Handlers) GetFilters(c echo.Context) error {
	filters, err := h.service.Filters(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, filters)
}

// ListTitles returns a handler listing one page of movies or series.
// GET /api/v1/movies?page=&genre=&year=&country=&rating=&sort=
func (h *Handlers) ListTitles(t content.ContentType) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := optionalInt(c.QueryParam("page"), "page")
		if err != nil {
			return err
		}
		sel := content.ContentSelector{
			Type: t,
			Page: page,
			Filters: content.FilterValues{
				Genre:   c.QueryParam("genre"),
				Year:    c.QueryParam("year"),
				Country: c.QueryParam("country"),
				Rating:  c.QueryParam("rating"),
				Sort:    c.QueryParam("sort"),
			},
		}
		return h.list(c, sel)
	}
}

// Search lists titles matching a keyword.
// GET /api/v1/search?keyword=&page=
func (h *Handlers) Search(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	if keyword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "keyword parameter is required")
	}
	page, err := optionalInt(c.QueryParam("page"), "page")
	if err != nil {
		return err
	}
	return h.list(c, content.ContentSelector{Type: content.TypeSearch, Keyword: keyword, Page: page})
}

// ListSeasons lists the seasons of a series.
// GET /api/v1/tvseries/:id/seasons
func (h *Handlers) ListSeasons(c echo.Context) error {
	return h.list(c, content.ContentSelector{Type: content.TypeSeason, ID: c.Param("id")})
}

// ListEpisodes lists the episodes of one season.
// GET /api/v1/tvseries/:id/seasons/:season
func (h *Handlers) ListEpisodes(c echo.Context) error {
	season, err := pathInt(c, "season")
	if err != nil {
		return err
	}
	return h.list(c, content.ContentSelector{Type: content.TypeEpisode, ID: c.Param("id"), Season: &season})
}

func (h *Handlers) list(c echo.Context, sel content.ContentSelector) error {
	listing, err := h.service.List(c.Request().Context(), sel)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, listing)
}

// GetMovie returns movie details.
// GET /api/v1/movies/:id
func (h *Handlers) GetMovie(c echo.Context) error {
	return h.details(c, content.ContentSelector{Type: content.TypeMovie, ID: c.Param("id")})
}

// GetSeries returns the series root item.
// GET /api/v1/tvseries/:id
func (h *Handlers) GetSeries(c echo.Context) error {
	return h.details(c, content.ContentSelector{Type: content.TypeSeries, ID: c.Param("id")})
}

// GetSeason returns one season item.
// GET /api/v1/tvseries/:id/seasons/:season/details
func (h *Handlers) GetSeason(c echo.Context) error {
	season, err := pathInt(c, "season")
	if err != nil {
		return err
	}
	return h.details(c, content.ContentSelector{Type: content.TypeSeason, ID: c.Param("id"), Season: &season})
}

// GetEpisode returns one episode item.
// GET /api/v1/tvseries/:id/seasons/:season/episodes/:episode
func (h *Handlers) GetEpisode(c echo.Context) error {
	season, err := pathInt(c, "season")
	if err != nil {
		return err
	}
	episode, err := pathInt(c, "episode")
	if err != nil {
		return err
	}
	return h.details(c, content.ContentSelector{
		Type:    content.TypeEpisode,
		ID:      c.Param("id"),
		Season:  &season,
		Episode: &episode,
	})
}

func (h *Handlers) details(c echo.Context, sel content.ContentSelector) error {
	item, err := h.service.Details(c.Request().Context(), sel)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Play resolves a movie or episode to a stream URL.
// GET /api/v1/play?type=&id=&season=&episode=&quality=
func (h *Handlers) Play(c echo.Context) error {
	sel, err := querySelector(c)
	if err != nil {
		return err
	}
	quality, err := h.quality(c)
	if err != nil {
		return err
	}

	playback, err := h.service.Play(c.Request().Context(), sel, quality)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, playback)
}

// Trailer resolves the trailer of a movie or series.
// GET /api/v1/trailer?type=&id=
func (h *Handlers) Trailer(c echo.Context) error {
	sel, err := querySelector(c)
	if err != nil {
		return err
	}

	url, err := h.service.Trailer(c.Request().Context(), sel)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// ResolveVideo resolves a raw playback id.
// GET /api/v1/video/:playbackId?quality=
func (h *Handlers) ResolveVideo(c echo.Context) error {
	quality, err := h.quality(c)
	if err != nil {
		return err
	}

	url, err := h.service.ResolvePlaybackURL(c.Request().Context(), c.Param("playbackId"), quality)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// ClearCache drops every cached upstream response.
// DELETE /api/v1/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	n, err := h.service.ClearCache(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": n})
}

// quality reads the quality query parameter, defaulting to the configured
// preference.
func (h *Handlers) quality(c echo.Context) (int, error) {
	raw := c.QueryParam("quality")
	if raw == "" {
		return h.service.Quality(), nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid quality")
	}
	return q, nil
}

func querySelector(c echo.Context) (content.ContentSelector, error) {
	t, err := content.ParseContentType(c.QueryParam("type"))
	if err != nil {
		return content.ContentSelector{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sel := content.ContentSelector{Type: t, ID: strings.TrimSpace(c.QueryParam("id"))}

	if raw := c.QueryParam("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			return sel, echo.NewHTTPError(http.StatusBadRequest, "invalid season")
		}
		sel.Season = &season
	}
	if raw := c.QueryParam("episode"); raw != "" {
		episode, err := strconv.Atoi(raw)
		if err != nil {
			return sel, echo.NewHTTPError(http.StatusBadRequest, "invalid episode")
		}
		sel.Episode = &episode
	}
	return sel, nil
}

func optionalInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

func pathInt(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}
