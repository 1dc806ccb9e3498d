// Package catalog talks to the TMDB v3 movie metadata API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 15 * time.Second
	maxBodySize     = 8 << 20
	fallbackWatchFn = "https://www.netflix.com/search?q="
)

type Mode int

const (
	ModeDiscover Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "discover"
}

// Request asks for one page of results. An empty Term browses by
// popularity; GenreID 0 means no genre filter.
type Request struct {
	Term    string
	Page    int
	GenreID int
}

func (r Request) Mode() Mode {
	if r.Term == "" {
		return ModeDiscover
	}
	return ModeSearch
}

// endpoint returns the path and query for r.
func (r Request) endpoint() (string, url.Values) {
	page := r.Page
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	path := "/discover/movie"
	if r.Mode() == ModeSearch {
		path = "/search/movie"
		q.Set("query", r.Term)
	} else {
		q.Set("sort_by", "popularity.desc")
	}
	q.Set("page", strconv.Itoa(page))
	if r.GenreID != 0 {
		q.Set("with_genres", strconv.Itoa(r.GenreID))
	}
	return path, q
}

type Client struct {
	baseURL   string
	imageBase string
	token     string
	region    string
	userAgent string

	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	flight  singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client, e.g. with an httptest server's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(cfg config.CatalogConfig, opts ...Option) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: cfg.ImageBaseURL,
		token:     cfg.Token,
		region:    cfg.Region,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
	}
	if c.region == "" {
		c.region = "US"
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller giving up is not the catalog's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			debuglog.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ImageBase returns the configured poster image prefix.
func (c *Client) ImageBase() string {
	return c.imageBase
}

// Query fetches one page of search or discover results.
func (c *Client) Query(ctx context.Context, req Request) (*Page, error) {
	path, q := req.endpoint()
	body, err := c.get(ctx, req.Mode().String(), path, q)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &Error{Op: req.Mode().String(), Err: fmt.Errorf("decoding response: %w", err)}
	}
	debuglog.Debugf("catalog %s term=%q page=%d genre=%d results=%d", req.Mode(), req.Term, page.Page, req.GenreID, len(page.Results))
	return &page, nil
}

// Genres lists the movie genres. Concurrent callers share one request.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	v, err, _ := c.flight.Do("genres", func() (any, error) {
		body, err := c.get(ctx, "genres", "/genre/movie/list", nil)
		if err != nil {
			return nil, err
		}
		var list genreList
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, &Error{Op: "genres", Err: fmt.Errorf("decoding response: %w", err)}
		}
		return list.Genres, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Genre), nil
}

func (c *Client) Details(ctx context.Context, id int64) (*Details, error) {
	body, err := c.get(ctx, "details", fmt.Sprintf("/movie/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var d Details
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, &Error{Op: "details", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &d, nil
}

// Trailer returns the first YouTube trailer for the movie, or nil when
// there is none.
func (c *Client) Trailer(ctx context.Context, id int64) (*Video, error) {
	body, err := c.get(ctx, "videos", fmt.Sprintf("/movie/%d/videos", id), nil)
	if err != nil {
		return nil, err
	}
	var list videoList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &Error{Op: "videos", Err: fmt.Errorf("decoding response: %w", err)}
	}
	for _, v := range list.Results {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			return &v, nil
		}
	}
	return nil, nil
}

// WatchLink resolves a streaming page for the movie in the configured
// region. It never fails: without a flat-rate provider, or on any error,
// it falls back to a title search.
func (c *Client) WatchLink(ctx context.Context, id int64, title string) WatchLink {
	fallback := WatchLink{URL: FallbackWatchURL(title), Fallback: true}

	body, err := c.get(ctx, "providers", fmt.Sprintf("/movie/%d/watch/providers", id), nil)
	if err != nil {
		debuglog.Warnf("watch providers for %d: %v", id, err)
		return fallback
	}

	region := gjson.GetBytes(body, "results."+gjsonEscape(c.region))
	if !region.Exists() {
		return fallback
	}
	flatrate := region.Get("flatrate")
	if !flatrate.IsArray() || len(flatrate.Array()) == 0 {
		return fallback
	}
	link := region.Get("link").String()
	if link == "" {
		return fallback
	}
	return WatchLink{URL: link}
}

// FallbackWatchURL is the streaming search used when no provider matches.
func FallbackWatchURL(title string) string {
	return fallbackWatchFn + strings.ReplaceAll(url.QueryEscape(title), "+", "%20")
}

func gjsonEscape(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, op, path, query)
	})
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return nil, err
		}
		// gobreaker.ErrOpenState and ErrTooManyRequests land here.
		return nil, &Error{Op: op, Err: err}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &Error{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}
