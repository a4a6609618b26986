// Package listing drives the upstream client and the normalizer across a
// page of results, a series' seasons or a season's episodes. It also owns
// the cached detail fetch path.
package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zonamobi/zonamobi/internal/cache"
	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/filters"
	"github.com/zonamobi/zonamobi/internal/normalize"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// Source is the subset of the upstream client the assembler needs.
type Source interface {
	Browse(ctx context.Context, t content.ContentType, filter content.FilterValues, page int) (*upstream.Listing, error)
	Search(ctx context.Context, keyword string, page int) (*upstream.SearchResult, error)
	DetailBody(ctx context.Context, t content.ContentType, titleID string) ([]byte, error)
	SeasonBody(ctx context.Context, titleID string, season int) ([]byte, error)
}

// Store is the response cache as seen by the assembler.
type Store interface {
	Get(ctx context.Context, titleID string, season int) ([]byte, bool, error)
	PutMany(ctx context.Context, entries []cache.Entry) error
}

// Config holds assembly options.
type Config struct {
	// LoadDetails resolves every row's full detail payload before normalizing.
	LoadDetails bool
	// Workers bounds concurrent hydration fetches.
	Workers int
}

// Assembler builds listings and details. It keeps no per-request state.
type Assembler struct {
	source     Source
	store      Store
	normalizer *normalize.Normalizer
	cfg        Config
	logger     zerolog.Logger
}

// New creates an assembler. store may be nil to disable caching.
func New(source Source, store Store, normalizer *normalize.Normalizer, cfg Config, logger zerolog.Logger) *Assembler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Assembler{
		source:     source,
		store:      store,
		normalizer: normalizer,
		cfg:        cfg,
		logger:     logger.With().Str("component", "listing").Logger(),
	}
}

// List returns one page of normalized items for the selector.
func (a *Assembler) List(ctx context.Context, sel content.ContentSelector) (*content.Listing, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	switch sel.Type {
	case content.TypeMovie, content.TypeSeries:
		return a.browse(ctx, sel)
	case content.TypeSearch:
		return a.search(ctx, sel)
	case content.TypeSeason:
		return a.seasons(ctx, sel)
	case content.TypeEpisode:
		return a.episodes(ctx, sel)
	}
	return nil, fmt.Errorf("%w: cannot list %q", content.ErrInvalidSelector, sel.Type)
}

func (a *Assembler) browse(ctx context.Context, sel content.ContentSelector) (*content.Listing, error) {
	page := sel.PageOrFirst()
	raw, err := a.source.Browse(ctx, sel.Type, filters.Normalize(sel.Filters), page)
	if err != nil {
		return nil, err
	}
	if raw.TitleH1 == nil {
		return nil, content.Missing("title_h1")
	}

	items, err := a.rows(ctx, raw.Items)
	if err != nil {
		return nil, err
	}

	return &content.Listing{
		Count:      len(items),
		Title:      normalize.PlainText(string(*raw.TitleH1)),
		Page:       page,
		TotalPages: int(raw.Pagination.TotalPages),
		Items:      items,
	}, nil
}

func (a *Assembler) search(ctx context.Context, sel content.ContentSelector) (*content.Listing, error) {
	page := sel.PageOrFirst()
	keyword := strings.TrimSpace(sel.Keyword)

	out := &content.Listing{
		Title: keyword,
		Page:  page,
		Items: []content.ContentItem{},
	}

	raw, err := a.source.Search(ctx, keyword, page)
	if upstream.IsAbsent(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := a.rows(ctx, raw.Items)
	if err != nil {
		return nil, err
	}

	out.Count = len(items)
	out.TotalPages = int(raw.Pagination.TotalPages)
	out.Secondary = bool(raw.IsSecond)
	out.Items = items
	return out, nil
}

// rows normalizes listing rows in arrival order, hydrating them first when
// detail loading is enabled.
func (a *Assembler) rows(ctx context.Context, rows []upstream.Title) ([]content.ContentItem, error) {
	items := make([]content.ContentItem, 0, len(rows))
	for i := range rows {
		item, err := a.normalizer.Row(&rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if !a.cfg.LoadDetails || len(items) == 0 {
		return items, nil
	}

	jobs := make([]fetchJob, len(items))
	for i, item := range items {
		jobs[i] = a.detailJob(item.Type, item.ID)
	}

	for i, d := range a.hydrate(ctx, jobs) {
		if d == nil {
			continue
		}
		full, err := a.normalizer.Detail(d, content.ContentSelector{Type: items[i].Type, ID: items[i].ID})
		if err != nil {
			a.logger.Warn().Err(err).Str("titleId", items[i].ID).Msg("Hydrated detail unusable, keeping listing row")
			continue
		}
		items[i] = full
	}
	return items, nil
}

func (a *Assembler) seasons(ctx context.Context, sel content.ContentSelector) (*content.Listing, error) {
	root, err := a.Fetch(ctx, content.ContentSelector{Type: content.TypeSeries, ID: sel.ID})
	if err != nil {
		return nil, err
	}
	if root.Serial == nil {
		return nil, content.Missing("serial")
	}
	if !root.Seasons.Set {
		return nil, content.Missing("seasons")
	}

	count := int(root.Seasons.Count)
	if count < 0 {
		return nil, content.Missing("seasons.count")
	}
	payloads := make([]*upstream.Detail, count)
	if a.cfg.LoadDetails && count > 0 {
		jobs := make([]fetchJob, count)
		for i := range jobs {
			jobs[i] = a.seasonJob(sel.ID, i+1)
		}
		payloads = a.hydrate(ctx, jobs)
	}

	items := make([]content.ContentItem, 0, count)
	for i := range count {
		seasonSel := content.ContentSelector{Type: content.TypeSeason, ID: sel.ID, Season: content.Int(i + 1)}

		if d := payloads[i]; d != nil {
			item, err := a.normalizer.Detail(d, seasonSel)
			if err == nil {
				items = append(items, item)
				continue
			}
			a.logger.Warn().Err(err).Str("titleId", sel.ID).Int("season", i+1).Msg("Hydrated season unusable, using series payload")
		}

		item, err := a.normalizer.Detail(root, seasonSel)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &content.Listing{
		Count: count,
		Title: normalize.Title(root.Serial),
		Items: items,
	}, nil
}

func (a *Assembler) episodes(ctx context.Context, sel content.ContentSelector) (*content.Listing, error) {
	season := *sel.Season
	d, err := a.Fetch(ctx, content.ContentSelector{Type: content.TypeSeason, ID: sel.ID, Season: content.Int(season)})
	if err != nil {
		return nil, err
	}

	items, err := a.normalizer.Episodes(d, season)
	if err != nil {
		return nil, err
	}

	return &content.Listing{
		Count:  len(items),
		Title:  normalize.Title(d.Serial),
		Season: season,
		Items:  items,
	}, nil
}

// Details returns the single normalized item for a movie, series, season
// or episode selector.
func (a *Assembler) Details(ctx context.Context, sel content.ContentSelector) (*content.ContentItem, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.ID == "" {
		return nil, fmt.Errorf("%w: details require an id", content.ErrInvalidSelector)
	}
	if sel.Type == content.TypeSeason && sel.Season == nil {
		return nil, fmt.Errorf("%w: season details require a season", content.ErrInvalidSelector)
	}
	if sel.Type == content.TypeEpisode && sel.Episode == nil {
		return nil, fmt.Errorf("%w: episode details require an episode", content.ErrInvalidSelector)
	}

	d, err := a.Fetch(ctx, sel)
	if err != nil {
		return nil, err
	}

	item, err := a.normalizer.Detail(d, sel)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Fetch returns the raw detail payload for a selector, going through the
// response cache. Season and episode selectors with a season number read the
// season endpoint, keyed (id, season); everything else reads the title
// endpoint, keyed (id, 0).
func (a *Assembler) Fetch(ctx context.Context, sel content.ContentSelector) (*upstream.Detail, error) {
	if sel.ID == "" {
		return nil, fmt.Errorf("%w: missing id", content.ErrInvalidSelector)
	}

	var job fetchJob
	switch {
	case (sel.Type == content.TypeSeason || sel.Type == content.TypeEpisode) && sel.Season != nil:
		job = a.seasonJob(sel.ID, *sel.Season)
	case sel.Type == content.TypeMovie:
		job = a.detailJob(content.TypeMovie, sel.ID)
	case sel.Type.IsSeriesFamily():
		job = a.detailJob(content.TypeSeries, sel.ID)
	default:
		return nil, fmt.Errorf("%w: cannot fetch details for %q", content.ErrInvalidSelector, sel.Type)
	}

	if d := a.cached(ctx, job); d != nil {
		return d, nil
	}

	body, err := job.fetch(ctx)
	if err != nil {
		return nil, err
	}
	d, err := upstream.ParseDetail(body)
	if err != nil {
		return nil, err
	}
	a.save(ctx, []cache.Entry{{TitleID: job.titleID, Season: job.season, Payload: body}})
	return d, nil
}
