// Package trending keeps per-term search counters and ranks them into a
// "popular searches" leaderboard.
package trending

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/pders01/reel/internal/catalog"
)

var ErrEmptyTerm = errors.New("trending: empty search term")

// Movie is the representative result stored alongside a counter.
type Movie struct {
	ID        int64  `json:"movie_id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
}

// MovieFrom builds the representative movie for a catalog result.
func MovieFrom(m catalog.Movie, imageBase string) Movie {
	return Movie{
		ID:        m.ID,
		Title:     m.Title,
		PosterURL: m.PosterURL(imageBase),
	}
}

// Counter tallies successful searches for one exact term.
type Counter struct {
	Term      string    `json:"search_term"`
	Count     int64     `json:"count"`
	Movie     Movie     `json:"movie"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store records searches and reads the leaderboard. Terms are matched
// exactly: no trimming, no case folding.
type Store interface {
	RecordSearch(ctx context.Context, term string, movie Movie) (*Counter, error)
	TopSearches(ctx context.Context, limit int) ([]*Counter, error)
}

// Apply returns the counter that results from one more successful search
// for term. existing may be nil for a term seen for the first time.
func Apply(existing *Counter, term string, movie Movie, now time.Time) *Counter {
	if existing == nil {
		return &Counter{
			Term:      term,
			Count:     1,
			Movie:     movie,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	next := *existing
	next.Count++
	next.Movie = movie
	next.UpdatedAt = now
	return &next
}

// Less orders counters by count descending, then earlier creation, then term.
func Less(a, b *Counter) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Term < b.Term
}

func Sort(counters []*Counter) {
	sort.SliceStable(counters, func(i, j int) bool {
		return Less(counters[i], counters[j])
	})
}

// Top sorts counters in place and returns at most limit of them.
func Top(counters []*Counter, limit int) []*Counter {
	if limit <= 0 {
		return []*Counter{}
	}
	Sort(counters)
	if len(counters) > limit {
		counters = counters[:limit]
	}
	return counters
}
