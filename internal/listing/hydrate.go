package listing

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/zonamobi/zonamobi/internal/cache"
	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// fetchJob describes one cacheable detail payload.
type fetchJob struct {
	titleID string
	season  int
	fetch   func(ctx context.Context) ([]byte, error)
}

func (a *Assembler) detailJob(t content.ContentType, titleID string) fetchJob {
	return fetchJob{
		titleID: titleID,
		season:  0,
		fetch: func(ctx context.Context) ([]byte, error) {
			return a.source.DetailBody(ctx, t, titleID)
		},
	}
}

func (a *Assembler) seasonJob(titleID string, season int) fetchJob {
	return fetchJob{
		titleID: titleID,
		season:  season,
		fetch: func(ctx context.Context) ([]byte, error) {
			return a.source.SeasonBody(ctx, titleID, season)
		},
	}
}

// cached returns the parsed cached payload for job, or nil on miss. Cache
// failures and unreadable payloads count as misses.
func (a *Assembler) cached(ctx context.Context, job fetchJob) *upstream.Detail {
	if a.store == nil {
		return nil
	}

	body, ok, err := a.store.Get(ctx, job.titleID, job.season)
	if err != nil {
		a.logger.Warn().Err(err).Str("titleId", job.titleID).Int("season", job.season).Msg("Cache read failed")
		return nil
	}
	if !ok {
		return nil
	}

	d, err := upstream.ParseDetail(body)
	if err != nil {
		a.logger.Warn().Err(err).Str("titleId", job.titleID).Int("season", job.season).Msg("Discarding unreadable cache entry")
		return nil
	}
	return d
}

// save writes entries in one batch. Failures are logged, never returned.
func (a *Assembler) save(ctx context.Context, entries []cache.Entry) {
	if a.store == nil || len(entries) == 0 {
		return
	}
	if err := a.store.PutMany(ctx, entries); err != nil {
		a.logger.Warn().Err(err).Int("entries", len(entries)).Msg("Cache write failed")
	}
}

// hydrate resolves the payload of every job, serving hits from the cache
// and fetching misses with at most cfg.Workers goroutines. Fresh payloads
// are stored in a single batch. The result is index-aligned with jobs; a
// nil entry means the fetch failed and the caller keeps its cheap item.
func (a *Assembler) hydrate(ctx context.Context, jobs []fetchJob) []*upstream.Detail {
	details := make([]*upstream.Detail, len(jobs))
	bodies := make([][]byte, len(jobs))

	var misses []int
	for i, job := range jobs {
		if d := a.cached(ctx, job); d != nil {
			details[i] = d
			continue
		}
		misses = append(misses, i)
	}

	if len(misses) > 0 {
		p := pool.New().WithMaxGoroutines(a.cfg.Workers)
		for _, i := range misses {
			job := jobs[i]
			p.Go(func() {
				body, err := job.fetch(ctx)
				if err != nil {
					a.logger.Warn().Err(err).Str("titleId", job.titleID).Int("season", job.season).Msg("Detail hydration failed")
					return
				}
				d, err := upstream.ParseDetail(body)
				if err != nil {
					a.logger.Warn().Err(err).Str("titleId", job.titleID).Int("season", job.season).Msg("Hydrated payload malformed")
					return
				}
				details[i] = d
				bodies[i] = body
			})
		}
		p.Wait()
	}

	var entries []cache.Entry
	for _, i := range misses {
		if bodies[i] != nil {
			entries = append(entries, cache.Entry{TitleID: jobs[i].titleID, Season: jobs[i].season, Payload: bodies[i]})
		}
	}
	a.save(ctx, entries)

	a.logger.Debug().
		Int("requested", len(jobs)).
		Int("fetched", len(entries)).
		Int("cached", len(jobs)-len(misses)).
		Msg("Hydrated details")

	return details
}
