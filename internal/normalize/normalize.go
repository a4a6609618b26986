// Package normalize turns raw upstream payloads into content items. Movie,
// series root, season and episode shapes are all produced here from the
// same detail payload, dispatched on the serial flag and on the selector.
package normalize

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// Normalizer holds the display preferences applied to every item. It keeps
// no state between calls.
type Normalizer struct {
	RatingSource content.RatingSource
	EpisodeLabel string
	SeasonLabel  string
}

// New creates a Normalizer, filling default labels.
func New(ratingSource content.RatingSource, episodeLabel, seasonLabel string) *Normalizer {
	if episodeLabel == "" {
		episodeLabel = "Episode"
	}
	if seasonLabel == "" {
		seasonLabel = "Season"
	}
	return &Normalizer{
		RatingSource: ratingSource,
		EpisodeLabel: episodeLabel,
		SeasonLabel:  seasonLabel,
	}
}

// Title returns the display title: localized, then English, then original.
// Falls back to the id so a title is never empty.
func Title(t *upstream.Title) string {
	for _, v := range []upstream.FlexString{t.NameRus, t.NameEng, t.NameOriginal, t.NameID} {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

// originalTitle picks the first non-empty candidate, falling back to the
// display title.
func originalTitle(t *upstream.Title, candidates ...upstream.FlexString) string {
	for _, v := range candidates {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return Title(t)
}

func hasTrailer(t *upstream.Title) bool {
	return strings.TrimSpace(string(t.TrailerURL)) != ""
}

func trailerRef(t *upstream.Title) *content.TrailerRef {
	url := strings.TrimSpace(string(t.Trailer.URL))
	id := strings.TrimSpace(string(t.Trailer.ID))
	if url == "" && id == "" {
		return nil
	}
	return &content.TrailerRef{URL: url, PlaybackID: id}
}

func durationSeconds(t *upstream.Title) int {
	if !t.Runtime.Set || t.Runtime.Value < 0 {
		return 0
	}
	return int(t.Runtime.Value) * 60
}

func titleType(t *upstream.Title) content.ContentType {
	if t.Serial {
		return content.TypeSeries
	}
	return content.TypeMovie
}

// Row normalizes a listing or search row. Rows lack credits and the
// episode list, so only the fields present are filled.
func (n *Normalizer) Row(row *upstream.Title) (content.ContentItem, error) {
	if row == nil {
		return content.ContentItem{}, content.Missing("items[]")
	}
	id := strings.TrimSpace(string(row.NameID))
	if id == "" {
		return content.ContentItem{}, content.Missing("name_id")
	}

	title := Title(row)
	item := content.ContentItem{
		ID:              id,
		Type:            titleType(row),
		Title:           title,
		OriginalTitle:   originalTitle(row, row.NameEng, row.NameOriginal),
		Year:            int(row.Year),
		PremiereDate:    PremiereDate(row),
		DateAdded:       DateAdded(row),
		DurationSeconds: durationSeconds(row),
		Plot:            PlainText(string(row.Description)),
		Genres:          []string{},
		Countries:       []string{},
		Cast:            []content.CastMember{},
		Writers:         []string{},
		Ratings:         Ratings(row, n.RatingSource),
		Artwork: content.Artwork{
			Poster: string(row.Cover),
			Thumb:  string(row.Cover),
		},
		HasTrailer: hasTrailer(row),
		TrailerRef: trailerRef(row),
	}

	if item.Type == content.TypeMovie {
		item.PlaybackRef = strings.TrimSpace(string(row.MobiLinkID))
	} else {
		item.SeriesContext = &content.SeriesContext{SeriesTitle: title}
	}
	return item, nil
}

// detailTitle returns the title object a selector expects in a detail payload.
func detailTitle(d *upstream.Detail, sel content.ContentSelector) (*upstream.Title, error) {
	if d == nil {
		return nil, content.Missing("detail")
	}
	switch {
	case sel.Type == content.TypeMovie:
		if d.Movie == nil {
			return nil, content.Missing("movie")
		}
		return d.Movie, nil
	case sel.Type.IsSeriesFamily():
		if d.Serial == nil {
			return nil, content.Missing("serial")
		}
		return d.Serial, nil
	}
	if t := d.Item(); t != nil {
		return t, nil
	}
	return nil, content.Missing("movie")
}

// base fills the fields shared by every detail-derived shape.
func (n *Normalizer) base(d *upstream.Detail, t *upstream.Title) (content.ContentItem, error) {
	id := strings.TrimSpace(string(t.NameID))
	if id == "" {
		return content.ContentItem{}, content.Missing("name_id")
	}

	item := content.ContentItem{
		ID:              id,
		Year:            int(t.Year),
		PremiereDate:    PremiereDate(t),
		DateAdded:       DateAdded(t),
		DurationSeconds: durationSeconds(t),
		Plot:            PlainText(string(t.Description)),
		Genres:          names(d.Genres),
		Countries:       names(d.Countries),
		Cast:            make([]content.CastMember, 0, len(d.Persons.Actors)),
		Writers:         names(d.Persons.Scenarist),
		Ratings:         []content.Rating{},
		Artwork: content.Artwork{
			Poster: string(t.Image),
			Thumb:  string(t.Image),
			Fanart: string(d.Backdrops.Image1280),
		},
	}

	for _, actor := range d.Persons.Actors {
		name := strings.TrimSpace(string(actor.Name))
		if name == "" {
			continue
		}
		item.Cast = append(item.Cast, content.CastMember{Name: name, Thumbnail: string(actor.Cover)})
	}

	// only the first listed director is kept
	if len(d.Persons.Director) > 0 {
		item.Director = strings.TrimSpace(string(d.Persons.Director[0].Name))
	}

	return item, nil
}

func names(list []upstream.Named) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if s := strings.TrimSpace(string(n.Name)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Detail normalizes a detail payload. The serial flag selects movie versus
// series family; within the family an episode number selects the episode
// shape, a season number the season shape, and neither the series root.
func (n *Normalizer) Detail(d *upstream.Detail, sel content.ContentSelector) (content.ContentItem, error) {
	t, err := detailTitle(d, sel)
	if err != nil {
		return content.ContentItem{}, err
	}

	item, err := n.base(d, t)
	if err != nil {
		return content.ContentItem{}, err
	}

	if !t.Serial {
		return n.movie(item, t), nil
	}

	switch {
	case sel.Episode != nil:
		if sel.Season == nil {
			return content.ContentItem{}, fmt.Errorf("%w: episode requires a season", content.ErrInvalidSelector)
		}
		ep, ok := FindEpisode(SortEpisodes(d.Episodes.Items), *sel.Season, *sel.Episode)
		if !ok {
			return content.ContentItem{}, fmt.Errorf("%s season %d episode %d: %w", item.ID, *sel.Season, *sel.Episode, content.ErrNotFound)
		}
		return n.episode(item, d, t, ep), nil
	case sel.Season != nil:
		return n.season(item, d, t, *sel.Season), nil
	default:
		return n.series(item, d, t), nil
	}
}

func (n *Normalizer) movie(item content.ContentItem, t *upstream.Title) content.ContentItem {
	item.Type = content.TypeMovie
	item.Title = Title(t)
	item.OriginalTitle = originalTitle(t, t.NameOriginal, t.NameEng)
	item.Ratings = Ratings(t, n.RatingSource)
	item.PlaybackRef = strings.TrimSpace(string(t.MobiLinkID))
	item.HasTrailer = hasTrailer(t)
	item.TrailerRef = trailerRef(t)
	return item
}

func (n *Normalizer) series(item content.ContentItem, d *upstream.Detail, t *upstream.Title) content.ContentItem {
	item.Type = content.TypeSeries
	item.Title = Title(t)
	item.OriginalTitle = originalTitle(t, t.NameOriginal, t.NameEng)
	item.Ratings = Ratings(t, n.RatingSource)
	item.HasTrailer = hasTrailer(t)
	item.TrailerRef = trailerRef(t)
	item.SeriesContext = &content.SeriesContext{
		SeriesTitle:  item.Title,
		SeasonCount:  int(d.Seasons.Count),
		EpisodeCount: int(d.Episodes.CountAll),
	}
	return item
}

func (n *Normalizer) season(item content.ContentItem, d *upstream.Detail, t *upstream.Title, season int) content.ContentItem {
	episodes := SeasonEpisodes(SortEpisodes(d.Episodes.Items), season)

	item.Type = content.TypeSeason
	item.Title = Title(t)
	item.OriginalTitle = originalTitle(t, t.NameOriginal, t.NameEng)
	item.DurationSeconds = 0
	item.PremiereDate = ""
	for _, ep := range episodes {
		if ep.Episode == 1 {
			item.PremiereDate = AiredDate(ep)
			break
		}
	}
	item.SeriesContext = &content.SeriesContext{
		SeriesTitle:  item.Title,
		SeasonCount:  int(d.Seasons.Count),
		EpisodeCount: len(episodes),
		Season:       content.Int(season),
	}
	return item
}

func (n *Normalizer) episode(item content.ContentItem, d *upstream.Detail, t *upstream.Title, ep upstream.Episode) content.ContentItem {
	season, number := int(ep.Season), int(ep.Episode)

	title := strings.TrimSpace(string(ep.Title))
	if title == "" {
		title = n.EpisodeTitle(season, number)
	}

	item.Type = content.TypeEpisode
	item.Title = title
	item.OriginalTitle = title
	item.PremiereDate = AiredDate(ep)
	item.PlaybackRef = strings.TrimSpace(string(ep.MobiLinkID))
	if thumb := d.Images[item.PlaybackRef]; item.PlaybackRef != "" && thumb != "" {
		item.Artwork.Thumb = thumb
	}
	item.SeriesContext = &content.SeriesContext{
		SeriesTitle:  Title(t),
		SeasonCount:  int(d.Seasons.Count),
		EpisodeCount: int(d.Episodes.CountAll),
		Season:       content.Int(season),
		Episode:      content.Int(number),
	}
	return item
}

// EpisodeTitle synthesizes a label for an untitled episode.
func (n *Normalizer) EpisodeTitle(season, episode int) string {
	return n.SeasonLabel + " " + strconv.Itoa(season) + " " + n.EpisodeLabel + " " + strconv.Itoa(episode)
}

// Episodes normalizes every episode of the given season in episode-key order.
func (n *Normalizer) Episodes(d *upstream.Detail, season int) ([]content.ContentItem, error) {
	t, err := detailTitle(d, content.ContentSelector{Type: content.TypeEpisode})
	if err != nil {
		return nil, err
	}
	base, err := n.base(d, t)
	if err != nil {
		return nil, err
	}

	episodes := SeasonEpisodes(SortEpisodes(d.Episodes.Items), season)
	items := make([]content.ContentItem, 0, len(episodes))
	for _, ep := range episodes {
		item := base
		item.Cast = slices.Clone(base.Cast)
		item.Genres = slices.Clone(base.Genres)
		item.Countries = slices.Clone(base.Countries)
		item.Writers = slices.Clone(base.Writers)
		items = append(items, n.episode(item, d, t, ep))
	}
	return items, nil
}

// SortEpisodes returns a copy ordered by episode key. Digit runs inside keys
// compare by value, so s01e9 sorts before s01e10. Entries without a key stay
// at their arrival position and keyed entries are ordered around them.
func SortEpisodes(list upstream.EpisodeList) []upstream.Episode {
	out := slices.Clone([]upstream.Episode(list))

	var slots []int
	var keyed []upstream.Episode
	for i, ep := range out {
		if ep.EpisodeKey != "" {
			slots = append(slots, i)
			keyed = append(keyed, ep)
		}
	}
	slices.SortStableFunc(keyed, func(a, b upstream.Episode) int {
		return compareKeys(string(a.EpisodeKey), string(b.EpisodeKey))
	})
	for i, slot := range slots {
		out[slot] = keyed[i]
	}
	return out
}

// compareKeys orders strings with embedded numbers by numeric value.
// Leading zeros do not matter; keys equal by value fall back to a byte
// comparison.
func compareKeys(a, b string) int {
	x, y := a, b
	for x != "" && y != "" {
		if isDigit(x[0]) && isDigit(y[0]) {
			nx, restX := digitRun(x)
			ny, restY := digitRun(y)
			nx, ny = strings.TrimLeft(nx, "0"), strings.TrimLeft(ny, "0")
			if c := cmp.Compare(len(nx), len(ny)); c != 0 {
				return c
			}
			if c := strings.Compare(nx, ny); c != 0 {
				return c
			}
			x, y = restX, restY
			continue
		}
		if c := cmp.Compare(x[0], y[0]); c != 0 {
			return c
		}
		x, y = x[1:], y[1:]
	}
	if c := cmp.Compare(len(x), len(y)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func digitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// SeasonEpisodes filters a sorted list to one season.
func SeasonEpisodes(sorted []upstream.Episode, season int) []upstream.Episode {
	out := make([]upstream.Episode, 0, len(sorted))
	for _, ep := range sorted {
		if int(ep.Season) == season {
			out = append(out, ep)
		}
	}
	return out
}

// FindEpisode scans a sorted list for the (season, episode) pair.
func FindEpisode(sorted []upstream.Episode, season, episode int) (upstream.Episode, bool) {
	for _, ep := range sorted {
		if int(ep.Season) == season && int(ep.Episode) == episode {
			return ep, true
		}
	}
	return upstream.Episode{}, false
}
