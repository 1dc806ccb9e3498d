package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/trending"
	bolt "go.etcd.io/bbolt"
)

const (
	MinRating = 1
	MaxRating = 10
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRating = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
)

var (
	trendingBucket  = []byte("trending")
	favoritesBucket = []byte("favorites")
	ratingsBucket   = []byte("ratings")
	metaBucket      = []byte("metadata")

	guestIDKey = []byte("guest_id")
	themeKey   = []byte("theme")
	genresKey  = []byte("genres")
)

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ trending.Store = (*Store)(nil)

func NewStore(dbPath string) (*Store, error) {
	return open(dbPath, 1*time.Second)
}

// Open creates the database directory if needed and opens the store with
// the configured lock timeout.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	return open(cfg.Path, timeout)
}

func open(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{trendingBucket, favoritesBucket, ratingsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func movieKey(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

// RecordSearch counts one more successful search for term. The read and
// the write share one bolt write transaction, so increments from this
// process never interleave.
func (s *Store) RecordSearch(ctx context.Context, term string, movie trending.Movie) (*trending.Counter, error) {
	if term == "" {
		return nil, trending.ErrEmptyTerm
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var next *trending.Counter
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(trendingBucket)

		var existing *trending.Counter
		if data := b.Get([]byte(term)); data != nil {
			existing = &trending.Counter{}
			if err := json.Unmarshal(data, existing); err != nil {
				return fmt.Errorf("decoding counter %q: %w", term, err)
			}
		}

		next = trending.Apply(existing, term, movie, s.now())
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		return b.Put([]byte(term), data)
	})
	if err != nil {
		return nil, fmt.Errorf("recording search: %w", err)
	}
	return next, nil
}

func (s *Store) TopSearches(ctx context.Context, limit int) ([]*trending.Counter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var counters []*trending.Counter
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(trendingBucket).ForEach(func(_ []byte, v []byte) error {
			var c trending.Counter
			if err := json.Unmarshal(v, &c); err != nil {
				return nil
			}
			counters = append(counters, &c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading counters: %w", err)
	}
	return trending.Top(counters, limit), nil
}

func (s *Store) GetCounter(term string) (*trending.Counter, error) {
	var c trending.Counter
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(trendingBucket).Get([]byte(term))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveFavorite(fav *Favorite) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(favoritesBucket)
		if fav.CreatedAt.IsZero() {
			fav.CreatedAt = s.now()
		}
		data, err := json.Marshal(fav)
		if err != nil {
			return err
		}
		return b.Put(movieKey(fav.MovieID), data)
	})
}

func (s *Store) RemoveFavorite(movieID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(favoritesBucket).Delete(movieKey(movieID))
	})
}

// ToggleFavorite saves fav if absent and removes it otherwise. It reports
// whether the movie is a favorite afterwards.
func (s *Store) ToggleFavorite(fav *Favorite) (bool, error) {
	var saved bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(favoritesBucket)
		key := movieKey(fav.MovieID)
		if b.Get(key) != nil {
			return b.Delete(key)
		}
		if fav.CreatedAt.IsZero() {
			fav.CreatedAt = s.now()
		}
		data, err := json.Marshal(fav)
		if err != nil {
			return err
		}
		saved = true
		return b.Put(key, data)
	})
	return saved, err
}

func (s *Store) IsFavorite(movieID int64) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(favoritesBucket).Get(movieKey(movieID)) != nil
		return nil
	})
	return found, err
}

// GetFavorites returns every favorite, most recently added first.
func (s *Store) GetFavorites() ([]*Favorite, error) {
	var favorites []*Favorite
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(favoritesBucket).ForEach(func(_ []byte, v []byte) error {
			var fav Favorite
			if err := json.Unmarshal(v, &fav); err != nil {
				return nil
			}
			favorites = append(favorites, &fav)
			return nil
		})
	})
	sort.SliceStable(favorites, func(i, j int) bool {
		return favorites[i].CreatedAt.After(favorites[j].CreatedAt)
	})
	return favorites, err
}

// SaveRating creates or replaces the user's rating for a movie.
func (s *Store) SaveRating(userID string, movieID int64, value int) (*Rating, error) {
	if value < MinRating || value > MaxRating {
		return nil, ErrInvalidRating
	}

	var rating Rating
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ratingsBucket)
		key := movieKey(movieID)
		now := s.now()

		if data := b.Get(key); data != nil {
			if err := json.Unmarshal(data, &rating); err != nil {
				return err
			}
		} else {
			rating.CreatedAt = now
		}
		rating.UserID = userID
		rating.MovieID = movieID
		rating.Rating = value
		rating.UpdatedAt = now

		data, err := json.Marshal(rating)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("saving rating: %w", err)
	}
	return &rating, nil
}

func (s *Store) GetRating(movieID int64) (*Rating, error) {
	var rating Rating
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ratingsBucket).Get(movieKey(movieID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rating)
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// GuestID returns the anonymous user id, creating it on first use.
func (s *Store) GuestID() (string, error) {
	var id string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		if data := b.Get(guestIDKey); data != nil {
			id = string(data)
			return nil
		}
		id = uuid.NewString()
		return b.Put(guestIDKey, []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("loading guest id: %w", err)
	}
	return id, nil
}

func (s *Store) Theme() (string, error) {
	var theme string
	err := s.db.View(func(tx *bolt.Tx) error {
		theme = string(tx.Bucket(metaBucket).Get(themeKey))
		return nil
	})
	return theme, err
}

func (s *Store) SetTheme(theme string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(themeKey, []byte(theme))
	})
}

func (s *Store) SaveGenres(genres []catalog.Genre) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(genreCache{Genres: genres, FetchedAt: s.now()})
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(genresKey, data)
	})
}

// GetGenres returns the cached genre list if it is younger than maxAge.
// ErrNotFound covers both a missing and an expired cache.
func (s *Store) GetGenres(maxAge time.Duration) ([]catalog.Genre, error) {
	var cache genreCache
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(genresKey)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &cache)
	})
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && s.now().Sub(cache.FetchedAt) > maxAge {
		return nil, ErrNotFound
	}
	return cache.Genres, nil
}
