// Package filters builds the option lists used to parameterize listings.
package filters

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/zonamobi/zonamobi/internal/cache"
	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// OldestDecade is the last decade bucket before the catch-all.
const OldestDecade = 1940

// OldValue selects everything older than OldestDecade.
const OldValue = "old"

const memoKey = "filters"

// Source is the subset of the upstream client the builder needs.
type Source interface {
	MainPage(ctx context.Context) (*upstream.MainPage, error)
	FilterWidget(ctx context.Context) (*upstream.Widget, error)
}

// Builder fetches and shapes filter options.
type Builder struct {
	source Source
	memo   *cache.Memory[[]content.Filter]
	logger zerolog.Logger
}

// NewBuilder creates a builder. A ttl of zero disables memoization.
func NewBuilder(source Source, ttl time.Duration, logger zerolog.Logger) *Builder {
	b := &Builder{
		source: source,
		logger: logger.With().Str("component", "filters").Logger(),
	}
	if ttl > 0 {
		b.memo = cache.NewMemory[[]content.Filter](cache.MemoryConfig{TTL: ttl, MaxItems: 1})
	}
	return b
}

// Close releases the memo's background cleanup.
func (b *Builder) Close() {
	if b.memo != nil {
		b.memo.Close()
	}
}

// Invalidate drops the memoized filters.
func (b *Builder) Invalidate() {
	if b.memo != nil {
		b.memo.Clear()
	}
}

// GetFilters returns the five filters in order: genre, year, country,
// rating, sort.
func (b *Builder) GetFilters(ctx context.Context) ([]content.Filter, error) {
	if b.memo != nil {
		if cached, ok := b.memo.Get(memoKey); ok {
			return cloneFilters(cached), nil
		}
	}

	widget, err := b.source.FilterWidget(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch filter widget: %w", err)
	}

	main, err := b.source.MainPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch main page: %w", err)
	}
	if main.CurrentYear <= 0 {
		return nil, content.Missing("current_year")
	}

	result := []content.Filter{
		{Key: content.FilterGenre, Options: namedOptions(widget.Genres)},
		{Key: content.FilterYear, Options: YearOptions(int(main.CurrentYear))},
		{Key: content.FilterCountry, Options: namedOptions(widget.Countries)},
		{Key: content.FilterRating, Options: RatingOptions()},
		{Key: content.FilterSort, Options: SortOptions()},
	}

	b.logger.Debug().
		Int("genres", len(result[0].Options)).
		Int("countries", len(result[2].Options)).
		Int("currentYear", int(main.CurrentYear)).
		Msg("Built filter catalog")

	if b.memo != nil {
		b.memo.Set(memoKey, cloneFilters(result))
	}
	return result, nil
}

func namedOptions(items upstream.NamedList) []content.FilterOption {
	opts := make([]content.FilterOption, 0, len(items))
	for _, item := range items {
		opts = append(opts, content.FilterOption{
			Value: string(item.Translit),
			Label: string(item.Name),
		})
	}
	return opts
}

// YearOptions synthesizes the year filter: every year from currentYear down
// to the start of its decade, then one bucket per earlier decade down to
// OldestDecade, then a catch-all bucket.
func YearOptions(currentYear int) []content.FilterOption {
	decadeStart := currentYear / 10 * 10

	var opts []content.FilterOption
	for y := currentYear; y >= decadeStart; y-- {
		v := strconv.Itoa(y)
		opts = append(opts, content.FilterOption{Value: v, Label: v})
	}
	for d := decadeStart - 10; d >= OldestDecade; d -= 10 {
		v := decadeValue(d)
		opts = append(opts, content.FilterOption{Value: v, Label: v})
	}
	opts = append(opts, content.FilterOption{
		Value: OldValue,
		Label: "older than " + decadeValue(OldestDecade),
	})
	return opts
}

// decadeValue renders 2010 as "2010s" and 1990 as "90s".
func decadeValue(decade int) string {
	if decade >= 2000 {
		return strconv.Itoa(decade) + "s"
	}
	return strconv.Itoa(decade%100) + "s"
}

// RatingOptions returns minimum-rating options 9 down to 1.
func RatingOptions() []content.FilterOption {
	opts := make([]content.FilterOption, 0, 9)
	for r := 9; r >= 1; r-- {
		v := strconv.Itoa(r)
		opts = append(opts, content.FilterOption{Value: v, Label: "at least " + v})
	}
	return opts
}

// SortOptions returns the fixed sort modes. Selecting updates bypasses every
// other filter.
func SortOptions() []content.FilterOption {
	return []content.FilterOption{
		{Value: content.SortPopularity, Label: "Popularity"},
		{Value: content.SortRating, Label: "Rating"},
		{Value: content.SortDate, Label: "Release date"},
		{Value: content.SortUpdates, Label: "Updates"},
	}
}

// Normalize clears genre, year, country and rating when the updates sort is
// selected.
func Normalize(f content.FilterValues) content.FilterValues {
	if f.IsUpdates() {
		return content.FilterValues{Sort: content.SortUpdates}
	}
	return f
}

func cloneFilters(in []content.Filter) []content.Filter {
	out := make([]content.Filter, len(in))
	for i, f := range in {
		out[i] = content.Filter{Key: f.Key, Options: slices.Clone(f.Options)}
	}
	return out
}
