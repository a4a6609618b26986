// Package content defines the normalized catalog model shared by every
// component of the engine: selectors describing a request, the uniform
// content item produced for movies, series, seasons and episodes, and the
// filter options used to parameterize listings.
package content

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// ContentType identifies the kind of catalog entry a selector or item refers to.
type ContentType string

const (
	TypeMovie   ContentType = "movie"
	TypeSeries  ContentType = "series"
	TypeSeason  ContentType = "season"
	TypeEpisode ContentType = "episode"
	TypeSearch  ContentType = "search"
)

// ParseContentType accepts the canonical names plus the plural forms used by
// upstream URLs ("movies", "tvseries", "seasons", "episodes").
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return TypeMovie, nil
	case "series", "tvseries", "tvshow":
		return TypeSeries, nil
	case "season", "seasons":
		return TypeSeason, nil
	case "episode", "episodes":
		return TypeEpisode, nil
	case "search":
		return TypeSearch, nil
	}
	return "", fmt.Errorf("%w: unknown content type %q", ErrInvalidSelector, s)
}

// IsSeriesFamily reports whether items of this type carry a series context.
func (t ContentType) IsSeriesFamily() bool {
	return t == TypeSeries || t == TypeSeason || t == TypeEpisode
}

// FilterValues holds the listing filter selection. Empty fields are unset.
type FilterValues struct {
	Genre   string `json:"genre,omitempty"`
	Year    string `json:"year,omitempty"`
	Country string `json:"country,omitempty"`
	Rating  string `json:"rating,omitempty"`
	Sort    string `json:"sort,omitempty"`
}

// IsUpdates reports whether the "updates" sort mode is selected. That mode
// bypasses every other filter.
func (f FilterValues) IsUpdates() bool {
	return f.Sort == SortUpdates
}

// ContentSelector is an immutable description of what the caller wants.
type ContentSelector struct {
	Type    ContentType  `json:"type"`
	ID      string       `json:"id,omitempty"`
	Season  *int         `json:"season,omitempty"`
	Episode *int         `json:"episode,omitempty"`
	Keyword string       `json:"keyword,omitempty"`
	Page    int          `json:"page,omitempty"`
	Filters FilterValues `json:"filters,omitempty"`
}

// Int returns a pointer to v, for building selectors inline.
func Int(v int) *int {
	return &v
}

// PageOrFirst returns the 1-based page number, defaulting to 1.
func (s ContentSelector) PageOrFirst() int {
	if s.Page < 1 {
		return 1
	}
	return s.Page
}

// Validate checks that the fields required by the selector type are present.
func (s ContentSelector) Validate() error {
	switch s.Type {
	case TypeMovie, TypeSeries:
	case TypeSeason:
		if s.ID == "" {
			return fmt.Errorf("%w: season selector requires a series id", ErrInvalidSelector)
		}
		if s.Season != nil && *s.Season < 1 {
			return fmt.Errorf("%w: season must be >= 1", ErrInvalidSelector)
		}
	case TypeEpisode:
		if s.ID == "" {
			return fmt.Errorf("%w: episode selector requires a series id", ErrInvalidSelector)
		}
		if s.Season == nil || *s.Season < 1 {
			return fmt.Errorf("%w: episode selector requires a season >= 1", ErrInvalidSelector)
		}
	case TypeSearch:
		if strings.TrimSpace(s.Keyword) == "" {
			return fmt.Errorf("%w: search selector requires a keyword", ErrInvalidSelector)
		}
	default:
		return fmt.Errorf("%w: unknown content type %q", ErrInvalidSelector, s.Type)
	}
	if s.Page < 0 {
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidSelector)
	}
	return nil
}

// RatingSource names a rating provider.
type RatingSource string

const (
	RatingIMDb      RatingSource = "imdb"
	RatingKinopoisk RatingSource = "kinopoisk"
	RatingNative    RatingSource = "native"
)

// RatingSources lists the known sources in the order ratings are emitted.
var RatingSources = []RatingSource{RatingIMDb, RatingKinopoisk, RatingNative}

// ParseRatingSource maps a configured preference to a source. The empty
// string means "no preference". "zona" is accepted as the native source.
func ParseRatingSource(s string) (RatingSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "imdb":
		return RatingIMDb, nil
	case "kinopoisk":
		return RatingKinopoisk, nil
	case "native", "zona":
		return RatingNative, nil
	}
	return "", fmt.Errorf("unknown rating source %q", s)
}

// Rating is a score from a single source.
type Rating struct {
	Source    RatingSource `json:"source"`
	Value     float64      `json:"value"`
	VoteCount int          `json:"voteCount"`
	Preferred bool         `json:"preferred,omitempty"`
}

// CastMember is an actor credit.
type CastMember struct {
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Artwork holds image URLs for an item.
type Artwork struct {
	Poster string `json:"poster,omitempty"`
	Thumb  string `json:"thumb,omitempty"`
	Fanart string `json:"fanart,omitempty"`
}

// TrailerRef points at a trailer: either a direct URL or a playback id that
// must be resolved.
type TrailerRef struct {
	URL        string `json:"url,omitempty"`
	PlaybackID string `json:"playbackId,omitempty"`
}

// SeriesContext carries series-family counters. Season and Episode are set
// for season and episode items only.
type SeriesContext struct {
	SeriesTitle     string `json:"seriesTitle,omitempty"`
	SeasonCount     int    `json:"seasonCount"`
	EpisodeCount    int    `json:"episodeCount"`
	Season          *int   `json:"season,omitempty"`
	Episode         *int   `json:"episode,omitempty"`
	WatchedEpisodes int    `json:"watchedEpisodes"`
}

// Properties renders the display counters the host UI shows next to a series
// or season. Episodes carry none. A season whose episodes were not part of
// the payload it was built from has no TotalEpisodes.
func (sc *SeriesContext) Properties() map[string]string {
	if sc == nil || sc.Episode != nil {
		return nil
	}
	props := map[string]string{
		"WatchedEpisodes": strconv.Itoa(sc.WatchedEpisodes),
	}
	if sc.Season == nil {
		props["TotalSeasons"] = strconv.Itoa(sc.SeasonCount)
	}
	if sc.Season == nil || sc.EpisodeCount > 0 {
		props["TotalEpisodes"] = strconv.Itoa(sc.EpisodeCount)
	}
	return props
}

// ContentItem is the uniform, normalized representation of a catalog entry.
// Items are built fresh for every request and never mutated afterwards.
type ContentItem struct {
	ID              string         `json:"id"`
	Type            ContentType    `json:"type"`
	Title           string         `json:"title"`
	OriginalTitle   string         `json:"originalTitle"`
	Year            int            `json:"year,omitempty"`
	PremiereDate    string         `json:"premiereDate,omitempty"`
	DateAdded       string         `json:"dateAdded,omitempty"`
	DurationSeconds int            `json:"durationSeconds"`
	Plot            string         `json:"plot,omitempty"`
	Genres          []string       `json:"genres"`
	Countries       []string       `json:"countries"`
	Cast            []CastMember   `json:"cast"`
	Director        string         `json:"director,omitempty"`
	Writers         []string       `json:"writers"`
	Ratings         []Rating       `json:"ratings"`
	Artwork         Artwork        `json:"artwork"`
	PlaybackRef     string         `json:"playbackRef,omitempty"`
	HasTrailer      bool           `json:"hasTrailer"`
	TrailerRef      *TrailerRef    `json:"trailerRef,omitempty"`
	SeriesContext   *SeriesContext `json:"seriesContext,omitempty"`
}

// Key returns the composite identity of the item.
func (c ContentItem) Key() string {
	key := string(c.Type) + ":" + c.ID
	if sc := c.SeriesContext; sc != nil {
		if sc.Season != nil {
			key += ":s" + strconv.Itoa(*sc.Season)
		}
		if sc.Episode != nil {
			key += ":e" + strconv.Itoa(*sc.Episode)
		}
	}
	return key
}

// PreferredRating returns the rating flagged as preferred, if any.
func (c ContentItem) PreferredRating() (Rating, bool) {
	for _, r := range c.Ratings {
		if r.Preferred {
			return r, true
		}
	}
	return Rating{}, false
}

// IsPlayable reports whether the item can be resolved to a stream.
func (c ContentItem) IsPlayable() bool {
	return (c.Type == TypeMovie || c.Type == TypeEpisode) && c.PlaybackRef != ""
}

// FilterKey names one of the listing filters.
type FilterKey string

const (
	FilterGenre   FilterKey = "genre"
	FilterYear    FilterKey = "year"
	FilterCountry FilterKey = "country"
	FilterRating  FilterKey = "rating"
	FilterSort    FilterKey = "sort"
)

// FilterKeys is the order filters are reported and applied in.
var FilterKeys = []FilterKey{FilterGenre, FilterYear, FilterCountry, FilterRating, FilterSort}

// Sort values understood by upstream.
const (
	SortPopularity = ""
	SortRating     = "rating"
	SortDate       = "date"
	SortUpdates    = "updates"
)

// FilterOption is a selectable value with its display label.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Filter is the option list for one filter key.
type Filter struct {
	Key     FilterKey      `json:"key"`
	Options []FilterOption `json:"options"`
}

// Listing is one page of normalized results.
type Listing struct {
	Count      int           `json:"count"`
	Title      string        `json:"title"`
	Page       int           `json:"page,omitempty"`
	TotalPages int           `json:"totalPages,omitempty"`
	Season     int           `json:"season,omitempty"`
	Secondary  bool          `json:"secondary,omitempty"`
	Items      []ContentItem `json:"items"`
}

// HasPrev reports whether a previous page exists.
func (l *Listing) HasPrev() bool {
	return l.TotalPages > 0 && l.Page > 1
}

// HasNext reports whether a next page exists.
func (l *Listing) HasNext() bool {
	return l.Page < l.TotalPages
}

// All yields the items in arrival order.
func (l *Listing) All() iter.Seq[ContentItem] {
	return func(yield func(ContentItem) bool) {
		for _, item := range l.Items {
			if !yield(item) {
				return
			}
		}
	}
}
