package trending

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pders01/reel/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares one leaderboard between several clients. Scores live
// in a sorted set and ZINCRBY makes every increment atomic; the
// representative movie of each term sits in its own hash.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

const (
	fieldMovieID   = "movie_id"
	fieldTitle     = "title"
	fieldPosterURL = "poster_url"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "reel:trending"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}, nil
}

func (s *RedisStore) scoresKey() string {
	return s.prefix + ":scores"
}

func (s *RedisStore) termKey(term string) string {
	return s.prefix + ":term:" + term
}

func (s *RedisStore) RecordSearch(ctx context.Context, term string, movie Movie) (*Counter, error) {
	if term == "" {
		return nil, ErrEmptyTerm
	}

	now := s.now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	key := s.termKey(term)

	pipe := s.client.TxPipeline()
	incr := pipe.ZIncrBy(ctx, s.scoresKey(), 1, term)
	pipe.HSetNX(ctx, key, fieldCreatedAt, stamp)
	pipe.HSet(ctx, key, map[string]interface{}{
		fieldMovieID:   strconv.FormatInt(movie.ID, 10),
		fieldTitle:     movie.Title,
		fieldPosterURL: movie.PosterURL,
		fieldUpdatedAt: stamp,
	})
	created := pipe.HGet(ctx, key, fieldCreatedAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis record search: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, created.Val())
	return &Counter{
		Term:      term,
		Count:     int64(incr.Val()),
		Movie:     movie,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}, nil
}

// TopSearches reads the highest scores plus every member tied with the
// last one, so the shared tie-break rule decides the cut instead of
// Redis's lexical order.
func (s *RedisStore) TopSearches(ctx context.Context, limit int) ([]*Counter, error) {
	if limit <= 0 {
		return []*Counter{}, nil
	}

	head, err := s.client.ZRevRangeWithScores(ctx, s.scoresKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis top searches: %w", err)
	}
	if len(head) == 0 {
		return []*Counter{}, nil
	}

	floor := head[len(head)-1].Score
	members, err := s.client.ZRevRangeByScoreWithScores(ctx, s.scoresKey(), &redis.ZRangeBy{
		Min: strconv.FormatFloat(floor, 'f', -1, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis top searches: %w", err)
	}

	pipe := s.client.Pipeline()
	hashes := make([]*redis.MapStringStringCmd, len(members))
	for i, z := range members {
		hashes[i] = pipe.HGetAll(ctx, s.termKey(memberString(z.Member)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis load counters: %w", err)
	}

	counters := make([]*Counter, 0, len(members))
	for i, z := range members {
		counters = append(counters, counterFromHash(memberString(z.Member), int64(z.Score), hashes[i].Val()))
	}
	return Top(counters, limit), nil
}

// Reset removes every counter under the store's prefix.
func (s *RedisStore) Reset(ctx context.Context) error {
	terms, err := s.client.ZRange(ctx, s.scoresKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("redis reset: %w", err)
	}
	keys := []string{s.scoresKey()}
	for _, t := range terms {
		keys = append(keys, s.termKey(t))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis reset: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func memberString(m interface{}) string {
	if s, ok := m.(string); ok {
		return s
	}
	return fmt.Sprint(m)
}

func counterFromHash(term string, count int64, h map[string]string) *Counter {
	id, _ := strconv.ParseInt(h[fieldMovieID], 10, 64)
	created, _ := time.Parse(time.RFC3339Nano, h[fieldCreatedAt])
	updated, _ := time.Parse(time.RFC3339Nano, h[fieldUpdatedAt])
	return &Counter{
		Term:  term,
		Count: count,
		Movie: Movie{
			ID:        id,
			Title:     h[fieldTitle],
			PosterURL: h[fieldPosterURL],
		},
		CreatedAt: created,
		UpdatedAt: updated,
	}
}
