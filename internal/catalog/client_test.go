package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pders01/reel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.TestConfig().Catalog
	cfg.BaseURL = srv.URL
	return New(cfg, WithHTTPClient(srv.Client())), srv
}

const searchBody = `{"page":1,"total_pages":3,"total_results":2,"results":[
	{"id":268,"title":"Batman","vote_average":7.2,"poster_path":"/b.jpg","original_language":"en","release_date":"1989-06-23"},
	{"id":272,"title":"Batman Begins","vote_average":7.7,"poster_path":"/bb.jpg","original_language":"en","release_date":"2005-06-10"}
]}`

func TestQuerySearchMode(t *testing.T) {
	var gotPath, gotQuery, gotPage, gotAuth, gotAccept string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotPage = r.URL.Query().Get("page")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(searchBody))
	}))

	page, err := client.Query(context.Background(), Request{Term: "batman", Page: 1})
	require.NoError(t, err)

	assert.Equal(t, "/search/movie", gotPath)
	assert.Equal(t, "batman", gotQuery)
	assert.Equal(t, "1", gotPage)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)

	require.Len(t, page.Results, 2)
	assert.Equal(t, int64(268), page.Results[0].ID)
	assert.Equal(t, "Batman", page.Results[0].Title)
	assert.Equal(t, "1989", page.Results[0].Year())
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.Empty())
}

func TestQueryDiscoverMode(t *testing.T) {
	var gotPath, gotSort, gotGenre, gotPage string
	var hadQuery bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSort = r.URL.Query().Get("sort_by")
		gotGenre = r.URL.Query().Get("with_genres")
		gotPage = r.URL.Query().Get("page")
		_, hadQuery = r.URL.Query()["query"]
		_, _ = w.Write([]byte(`{"page":2,"total_pages":9,"results":[]}`))
	}))

	page, err := client.Query(context.Background(), Request{Page: 2, GenreID: 28})
	require.NoError(t, err)

	assert.Equal(t, "/discover/movie", gotPath)
	assert.Equal(t, "popularity.desc", gotSort)
	assert.Equal(t, "28", gotGenre)
	assert.Equal(t, "2", gotPage)
	assert.False(t, hadQuery)
	assert.True(t, page.Empty())
}

func TestQueryKeepsTermVerbatim(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))

	_, err := client.Query(context.Background(), Request{Term: " Fast & Furious ", Page: 0})
	require.NoError(t, err)
	assert.Equal(t, " Fast & Furious ", gotQuery)
}

func TestQueryNonSuccessStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))

	_, err := client.Query(context.Background(), Request{Term: "x", Page: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusUnauthorized, ce.StatusCode)
	assert.Equal(t, "search", ce.Op)
}

func TestQueryNetworkFailure(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := client.Query(context.Background(), Request{Page: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestQueryMalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [`))
	}))

	_, err := client.Query(context.Background(), Request{Page: 1})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := config.TestConfig().Catalog
	cfg.BaseURL = srv.URL
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Minute
	client := New(cfg, WithHTTPClient(srv.Client()))

	for i := 0; i < 2; i++ {
		_, err := client.Query(context.Background(), Request{Page: 1})
		require.ErrorIs(t, err, ErrTransport)
	}

	_, err := client.Query(context.Background(), Request{Page: 1})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, int32(2), hits.Load(), "open breaker must short-circuit the request")
}

func TestGenres(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/genre/movie/list", r.URL.Path)
		<-release
		_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comedy"}]}`))
	}))

	var wg sync.WaitGroup
	results := make([][]Genre, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := client.Genres(context.Background())
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, g := range results {
		assert.Equal(t, []Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}, g)
	}
	assert.LessOrEqual(t, hits.Load(), int32(3))
	assert.GreaterOrEqual(t, hits.Load(), int32(1))
}

func TestDetailsAndTrailer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/603", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","runtime":136,"release_date":"1999-03-30",
			"vote_average":8.2,"genres":[{"id":28,"name":"Action"}],"overview":"Neo."}`))
	})
	mux.HandleFunc("/movie/603/videos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"key":"teaser1","site":"YouTube","type":"Teaser"},
			{"key":"vim1","site":"Vimeo","type":"Trailer"},
			{"key":"yt1","site":"YouTube","type":"Trailer","name":"Official Trailer"},
			{"key":"yt2","site":"YouTube","type":"Trailer"}
		]}`))
	})
	mux.HandleFunc("/movie/1/videos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	client, _ := newTestClient(t, mux)

	d, err := client.Details(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", d.Title)
	assert.Equal(t, 136, d.Runtime)
	assert.Equal(t, []int{28}, d.Summary().GenreIDs)

	v, err := client.Trailer(context.Background(), 603)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "yt1", v.Key)
	assert.Equal(t, "https://www.youtube.com/watch?v=yt1", v.URL())

	none, err := client.Trailer(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestWatchLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/1/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"results":{"US":{"link":"https://www.themoviedb.org/movie/1/watch?locale=US",
			"flatrate":[{"provider_name":"Netflix"}]}}}`))
	})
	mux.HandleFunc("/movie/2/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":2,"results":{"US":{"link":"https://x","rent":[{"provider_name":"Apple"}]}}}`))
	})
	mux.HandleFunc("/movie/3/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, _ := newTestClient(t, mux)

	link := client.WatchLink(context.Background(), 1, "One")
	assert.False(t, link.Fallback)
	assert.Equal(t, "https://www.themoviedb.org/movie/1/watch?locale=US", link.URL)

	link = client.WatchLink(context.Background(), 2, "Two Towers")
	assert.True(t, link.Fallback)
	assert.Equal(t, "https://www.netflix.com/search?q=Two%20Towers", link.URL)

	link = client.WatchLink(context.Background(), 3, "Three")
	assert.True(t, link.Fallback)
	assert.Equal(t, "https://www.netflix.com/search?q=Three", link.URL)
}

func TestMovieHelpers(t *testing.T) {
	m := Movie{PosterPath: "/abc.jpg", VoteAverage: 7.25}
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", m.PosterURL("https://image.tmdb.org/t/p/w500"))
	assert.Equal(t, "", Movie{}.PosterURL("https://image.tmdb.org/t/p/w500"))
	assert.Equal(t, "N/A", Movie{}.Year())
	assert.Equal(t, "N/A", Movie{}.Rating())
	assert.Equal(t, "7.2", m.Rating())
}

func TestRequestMode(t *testing.T) {
	assert.Equal(t, ModeDiscover, Request{}.Mode())
	assert.Equal(t, ModeSearch, Request{Term: " "}.Mode())
	assert.Equal(t, "search", ModeSearch.String())
	assert.Equal(t, "discover", ModeDiscover.String())
}
