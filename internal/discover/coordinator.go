package discover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/trending"
	"golang.org/x/sync/errgroup"
)

// Catalog is the part of the remote movie catalog the coordinator uses.
type Catalog interface {
	Query(ctx context.Context, req catalog.Request) (*catalog.Page, error)
	Genres(ctx context.Context) ([]catalog.Genre, error)
	Details(ctx context.Context, id int64) (*catalog.Details, error)
	Trailer(ctx context.Context, id int64) (*catalog.Video, error)
	WatchLink(ctx context.Context, id int64, title string) catalog.WatchLink
}

// GenreCache persists the genre list between runs.
type GenreCache interface {
	SaveGenres(genres []catalog.Genre) error
	GetGenres(maxAge time.Duration) ([]catalog.Genre, error)
}

type Coordinator struct {
	catalog   Catalog
	store     trending.Store
	imageBase string

	genreCache  GenreCache
	genreMaxAge time.Duration
}

type Option func(*Coordinator)

// WithImageBase sets the prefix used to build poster URLs for counters.
func WithImageBase(base string) Option {
	return func(c *Coordinator) { c.imageBase = base }
}

func WithGenreCache(cache GenreCache, maxAge time.Duration) Option {
	return func(c *Coordinator) {
		c.genreCache = cache
		c.genreMaxAge = maxAge
	}
}

func New(cat Catalog, store trending.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		catalog:     cat,
		store:       store,
		imageBase:   "https://image.tmdb.org/t/p/w500",
		genreMaxAge: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search issues exactly one catalog call for req. Failures are reported in
// the outcome, never returned or panicked past this call.
func (c *Coordinator) Search(ctx context.Context, req Request) Outcome {
	q := req.Query.normalize()
	out := Outcome{Seq: req.Seq, Query: q}

	page, err := c.catalog.Query(ctx, req.catalogRequest())
	if err != nil {
		debuglog.WithFields(map[string]any{"term": q.Term, "page": q.Page, "genre": q.GenreID}).
			Errorf("fetching movies: %v", err)
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	if page.Empty() {
		out.Status = StatusEmpty
		if page != nil {
			out.TotalPages = page.TotalPages
		}
		return out
	}

	out.Status = StatusSuccess
	out.Movies = page.Results
	out.TotalPages = page.TotalPages
	if q.Term != "" {
		out.Record = &RecordSearch{Term: q.Term, Movie: page.Results[0]}
	}
	return out
}

// Record applies a RecordSearch effect to the trending store. The error is
// logged and returned; callers that treat trending as best effort may
// drop it.
func (c *Coordinator) Record(ctx context.Context, r *RecordSearch) (*trending.Counter, error) {
	if r == nil {
		return nil, nil
	}
	counter, err := c.store.RecordSearch(ctx, r.Term, trending.MovieFrom(r.Movie, c.imageBase))
	if err != nil {
		debuglog.WithFields(map[string]any{"term": r.Term, "movie": r.Movie.ID}).
			Warnf("updating trending counter: %v", err)
		return nil, fmt.Errorf("recording search %q: %w", r.Term, err)
	}
	debuglog.Debugf("trending %q now at %d", counter.Term, counter.Count)
	return counter, nil
}

// SearchAndRecord runs Search and then, synchronously, its record effect.
// A failing counter update does not change the outcome.
func (c *Coordinator) SearchAndRecord(ctx context.Context, req Request) Outcome {
	out := c.Search(ctx, req)
	if out.Record != nil {
		_, _ = c.Record(ctx, out.Record)
	}
	return out
}

func (c *Coordinator) Leaderboard(ctx context.Context, limit int) ([]*trending.Counter, error) {
	counters, err := c.store.TopSearches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	return counters, nil
}

// Genres returns the genre list, preferring a fresh cached copy.
func (c *Coordinator) Genres(ctx context.Context) ([]catalog.Genre, error) {
	if c.genreCache != nil {
		if genres, err := c.genreCache.GetGenres(c.genreMaxAge); err == nil && len(genres) > 0 {
			return genres, nil
		}
	}

	genres, err := c.catalog.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading genres: %w", err)
	}

	if c.genreCache != nil {
		if err := c.genreCache.SaveGenres(genres); err != nil {
			debuglog.Warnf("caching genres: %v", err)
		}
	}
	return genres, nil
}

// MovieDetails bundles everything the details view shows.
type MovieDetails struct {
	Details *catalog.Details
	Trailer *catalog.Video
	Watch   catalog.WatchLink
}

var ErrInvalidMovie = errors.New("invalid movie id")

// Details fetches the movie and its trailer in parallel, then resolves a
// streaming link for its title.
func (c *Coordinator) Details(ctx context.Context, id int64) (*MovieDetails, error) {
	if id <= 0 {
		return nil, ErrInvalidMovie
	}

	var md MovieDetails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.catalog.Details(gctx, id)
		if err != nil {
			return fmt.Errorf("fetching details: %w", err)
		}
		md.Details = d
		return nil
	})
	g.Go(func() error {
		v, err := c.catalog.Trailer(gctx, id)
		if err != nil {
			return fmt.Errorf("fetching videos: %w", err)
		}
		md.Trailer = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	md.Watch = c.catalog.WatchLink(ctx, id, md.Details.Title)
	return &md, nil
}
