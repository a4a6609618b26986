// Package catalog is the caller-facing facade over the filter catalog, the
// listing assembler and the URL resolver.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zonamobi/zonamobi/internal/cache"
	"github.com/zonamobi/zonamobi/internal/config"
	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/filters"
	"github.com/zonamobi/zonamobi/internal/listing"
	"github.com/zonamobi/zonamobi/internal/normalize"
	"github.com/zonamobi/zonamobi/internal/resolver"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// Playback is a playable item together with its resolved stream URL.
type Playback struct {
	Item content.ContentItem `json:"item"`
	URL  string              `json:"url"`
}

// Service wires the catalog components together. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	filters   *filters.Builder
	assembler *listing.Assembler
	resolver  *resolver.Resolver
	responses *cache.ResponseCache
	quality   int
	logger    zerolog.Logger
}

// NewService creates a service backed by client. responses may be nil to run
// without the on-disk cache.
func NewService(cfg config.CatalogConfig, client *upstream.Client, responses *cache.ResponseCache, logger zerolog.Logger) (*Service, error) {
	ratingSource, err := content.ParseRatingSource(cfg.RatingSource)
	if err != nil {
		return nil, err
	}

	// a nil *ResponseCache must not become a non-nil listing.Store
	var store listing.Store
	if responses != nil {
		store = responses
	}

	return &Service{
		filters: filters.NewBuilder(client, cfg.FiltersTTL(), logger),
		assembler: listing.New(
			client,
			store,
			normalize.New(ratingSource, cfg.EpisodeLabel, cfg.SeasonLabel),
			listing.Config{LoadDetails: cfg.LoadDetails, Workers: cfg.HydrationWorkers},
			logger,
		),
		resolver:  resolver.New(client, logger),
		responses: responses,
		quality:   cfg.VideoQuality,
		logger:    logger.With().Str("component", "catalog").Logger(),
	}, nil
}

// Close stops background work owned by the service.
func (s *Service) Close() {
	s.filters.Close()
}

// Quality returns the configured video quality preference.
func (s *Service) Quality() int {
	return s.quality
}

// Filters returns the genre, year, country, rating and sort filters.
func (s *Service) Filters(ctx context.Context) ([]content.Filter, error) {
	return s.filters.GetFilters(ctx)
}

// List returns one page of items for the selector.
func (s *Service) List(ctx context.Context, sel content.ContentSelector) (*content.Listing, error) {
	return s.assembler.List(ctx, sel)
}

// Details returns a single movie, series, season or episode.
func (s *Service) Details(ctx context.Context, sel content.ContentSelector) (*content.ContentItem, error) {
	return s.assembler.Details(ctx, sel)
}

// ResolvePlaybackURL resolves a playback id at the given quality.
func (s *Service) ResolvePlaybackURL(ctx context.Context, playbackID string, quality int) (string, error) {
	return s.resolver.ResolvePlaybackURL(ctx, playbackID, quality)
}

// Play fetches a movie or episode and resolves its stream URL.
func (s *Service) Play(ctx context.Context, sel content.ContentSelector, quality int) (*Playback, error) {
	if sel.Type != content.TypeMovie && sel.Type != content.TypeEpisode {
		return nil, fmt.Errorf("%w: only movies and episodes are playable", content.ErrInvalidSelector)
	}

	item, err := s.assembler.Details(ctx, sel)
	if err != nil {
		return nil, err
	}
	if !item.IsPlayable() {
		return nil, &content.ResolutionError{Reason: item.Key() + " has no playback id"}
	}

	url, err := s.resolver.ResolvePlaybackURL(ctx, item.PlaybackRef, quality)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("item", item.Key()).Int("quality", quality).Msg("Resolved playback")
	return &Playback{Item: *item, URL: url}, nil
}

// Trailer returns the trailer URL of a movie or series. A direct URL is
// returned as is; otherwise the trailer's playback id is resolved at the
// configured quality.
func (s *Service) Trailer(ctx context.Context, sel content.ContentSelector) (string, error) {
	switch {
	case sel.Type == content.TypeMovie:
	case sel.Type.IsSeriesFamily():
		sel = content.ContentSelector{Type: content.TypeSeries, ID: sel.ID}
	default:
		return "", fmt.Errorf("%w: trailers exist for movies and series only", content.ErrInvalidSelector)
	}

	item, err := s.assembler.Details(ctx, sel)
	if err != nil {
		return "", err
	}

	ref := item.TrailerRef
	if ref == nil {
		return "", &content.ResolutionError{Reason: item.Key() + " has no trailer"}
	}
	if url := strings.TrimSpace(ref.URL); url != "" {
		return url, nil
	}
	return s.resolver.ResolvePlaybackURL(ctx, ref.PlaybackID, s.quality)
}

// ClearCache deletes every cached response and the memoized filters.
func (s *Service) ClearCache(ctx context.Context) (int64, error) {
	s.filters.Invalidate()
	if s.responses == nil {
		return 0, nil
	}
	n, err := s.responses.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("entries", n).Msg("Cleared response cache")
	return n, nil
}

// SweepCache removes expired cached responses.
func (s *Service) SweepCache(ctx context.Context) (int64, error) {
	if s.responses == nil {
		return 0, nil
	}
	return s.responses.Sweep(ctx)
}
