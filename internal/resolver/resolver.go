// Package resolver turns playback identifiers into streamable URLs.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// Quality preferences. Anything above QualityHigh is treated as high.
const (
	QualityLow  = 0
	QualityHigh = 1
)

// Source fetches the URL variants for a playback id.
type Source interface {
	VideoLinks(ctx context.Context, playbackID string) (*upstream.VideoLinks, error)
}

// Select applies the quality rule to the two variants. Preference 0 takes the
// low-quality URL when present; higher preferences take the high-quality URL
// when present. Either way the other variant is the fallback.
func Select(links *upstream.VideoLinks, quality int) (string, error) {
	if links == nil {
		return "", &content.ResolutionError{Reason: "no video links"}
	}

	low := strings.TrimSpace(string(links.LQURL))
	high := strings.TrimSpace(string(links.URL))

	preferred, fallback := high, low
	if quality <= QualityLow {
		preferred, fallback = low, high
	}

	switch {
	case preferred != "":
		return preferred, nil
	case fallback != "":
		return fallback, nil
	}
	return "", &content.ResolutionError{Reason: "both quality variants are empty"}
}

// Resolver resolves playback ids through the video endpoint.
type Resolver struct {
	source Source
	logger zerolog.Logger
}

// New creates a Resolver.
func New(source Source, logger zerolog.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// ResolvePlaybackURL returns the URL for playbackID at the given quality.
// Network and decode failures propagate unchanged; an unknown id or empty
// variants yield a ResolutionError.
func (r *Resolver) ResolvePlaybackURL(ctx context.Context, playbackID string, quality int) (string, error) {
	playbackID = strings.TrimSpace(playbackID)
	if playbackID == "" {
		return "", &content.ResolutionError{Reason: "empty playback id"}
	}

	links, err := r.source.VideoLinks(ctx, playbackID)
	if upstream.IsAbsent(err) {
		return "", &content.ResolutionError{PlaybackID: playbackID, Reason: "unknown playback id"}
	}
	if err != nil {
		return "", err
	}

	url, err := Select(links, quality)
	if err != nil {
		var resErr *content.ResolutionError
		if errors.As(err, &resErr) {
			resErr.PlaybackID = playbackID
		}
		return "", err
	}

	r.logger.Debug().Str("playbackId", playbackID).Int("quality", quality).Msg("Resolved playback URL")
	return url, nil
}
