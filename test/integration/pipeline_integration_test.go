package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debounce"
	"github.com/pders01/reel/internal/discover"
	"github.com/pders01/reel/internal/storage"
	"github.com/pders01/reel/internal/trending"
)

var (
	catalogServer *httptest.Server
	queriesMu     sync.Mutex
	queries       []string
)

func TestMain(m *testing.M) {
	catalogServer = httptest.NewServer(http.HandlerFunc(serveCatalog))
	code := m.Run()
	catalogServer.Close()
	os.Exit(code)
}

func serveCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer integration-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/search/movie":
		term := r.URL.Query().Get("query")
		queriesMu.Lock()
		queries = append(queries, term)
		queriesMu.Unlock()

		switch term {
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			return
		case "slow":
			select {
			case <-time.After(150 * time.Millisecond):
			case <-r.Context().Done():
				return
			}
		case "nothing":
			fmt.Fprint(w, `{"page":1,"results":[],"total_pages":0,"total_results":0}`)
			return
		}
		fmt.Fprintf(w, `{"page":%s,"results":[
			{"id":%d,"title":"%s: The Movie","vote_average":6.5,"release_date":"2020-01-01","poster_path":"/%s.jpg"},
			{"id":9999,"title":"Another %s","vote_average":5.1,"release_date":"2019-05-05"}
		],"total_pages":2,"total_results":40}`, pageOf(r), idFor(term), term, term, term)

	case "/discover/movie":
		fmt.Fprintf(w, `{"page":%s,"results":[{"id":550,"title":"Fight Club","vote_average":8.4}],"total_pages":500}`, pageOf(r))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func pageOf(r *http.Request) string {
	if p := r.URL.Query().Get("page"); p != "" {
		return p
	}
	return "1"
}

func idFor(term string) int {
	id := 1
	for _, c := range term {
		id = id*31 + int(c)
	}
	if id < 0 {
		id = -id
	}
	return id%100000 + 1
}

func resetQueries() {
	queriesMu.Lock()
	defer queriesMu.Unlock()
	queries = nil
}

func searchedTerms() []string {
	queriesMu.Lock()
	defer queriesMu.Unlock()
	return append([]string(nil), queries...)
}

func catalogConfig() config.CatalogConfig {
	return config.CatalogConfig{
		BaseURL:         catalogServer.URL,
		ImageBaseURL:    "https://image.tmdb.org/t/p/w500",
		Token:           "integration-token",
		HTTPTimeout:     2 * time.Second,
		RateLimit:       1000,
		RateBurst:       100,
		BreakerFailures: 50,
		BreakerTimeout:  time.Second,
	}
}

// backends returns every trending store available in this environment.
// Redis joins when REEL_TEST_REDIS_ADDR is set.
func backends(t *testing.T) map[string]trending.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "reel.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	out := map[string]trending.Store{
		"bolt":   store,
		"memory": trending.NewMemoryStore(),
	}

	if addr := os.Getenv("REEL_TEST_REDIS_ADDR"); addr != "" {
		ctx := context.Background()
		rs, err := trending.NewRedisStore(ctx, config.RedisConfig{
			Addr:   addr,
			Prefix: fmt.Sprintf("reel:test:%d", time.Now().UnixNano()),
		})
		if err != nil {
			t.Fatalf("connecting redis: %v", err)
		}
		t.Cleanup(func() {
			_ = rs.Reset(ctx)
			_ = rs.Close()
		})
		out["redis"] = rs
	}
	return out
}

// session drives the pipeline the way the UI does: a debouncer feeding
// committed terms into Begin, Search and Resolve.
type session struct {
	t       *testing.T
	coord   *discover.Coordinator
	state   discover.State
	commits chan string
	deb     *debounce.Debouncer[string]
}

func newSession(t *testing.T, store trending.Store) *session {
	client := catalog.New(catalogConfig())
	s := &session{
		t:       t,
		coord:   discover.New(client, store, discover.WithImageBase(client.ImageBase())),
		state:   discover.NewState(),
		commits: make(chan string, 8),
	}
	s.deb = debounce.New(40*time.Millisecond, func(term string) { s.commits <- term })
	t.Cleanup(s.deb.Stop)
	return s
}

func (s *session) waitCommit() string {
	s.t.Helper()
	select {
	case term := <-s.commits:
		return term
	case <-time.After(2 * time.Second):
		s.t.Fatal("debouncer never committed")
		return ""
	}
}

func (s *session) run(ctx context.Context) discover.Outcome {
	var req discover.Request
	s.state, req = s.state.Begin()
	out := s.coord.Search(ctx, req)
	var applied bool
	s.state, applied = s.state.Resolve(out)
	if applied && out.Record != nil {
		if _, err := s.coord.Record(ctx, out.Record); err != nil {
			s.t.Fatalf("record: %v", err)
		}
	}
	return out
}

func TestPipeline_TypingIssuesOneQuery(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			resetQueries()
			ctx := context.Background()
			s := newSession(t, store)

			for _, prefix := range []string{"i", "in", "inc", "ince", "incep", "inception"} {
				s.deb.Push(prefix)
				time.Sleep(5 * time.Millisecond)
			}
			term := s.waitCommit()
			if term != "inception" {
				t.Fatalf("expected the settled term, got %q", term)
			}
			select {
			case extra := <-s.commits:
				t.Fatalf("unexpected second commit %q", extra)
			case <-time.After(100 * time.Millisecond):
			}

			s.state = s.state.WithTerm(term)
			out := s.run(ctx)
			if out.Status != discover.StatusSuccess || len(s.state.Movies) != 2 {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if got := searchedTerms(); len(got) != 1 || got[0] != "inception" {
				t.Fatalf("expected a single catalog search, got %v", got)
			}

			top, err := s.coord.Leaderboard(ctx, 5)
			if err != nil {
				t.Fatal(err)
			}
			if len(top) != 1 || top[0].Term != "inception" || top[0].Count != 1 {
				t.Fatalf("unexpected leaderboard %+v", top)
			}
			if !strings.HasSuffix(top[0].Movie.PosterURL, "/inception.jpg") {
				t.Errorf("poster url should be built from the first result, got %q", top[0].Movie.PosterURL)
			}
		})
	}
}

func TestPipeline_SupersededResponseIsDropped(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newSession(t, store)

			var slowReq, fastReq discover.Request
			s.state, slowReq = s.state.WithTerm("slow").Begin()
			s.state, fastReq = s.state.WithTerm("matrix").Begin()

			outcomes := make(chan discover.Outcome, 2)
			go func() { outcomes <- s.coord.Search(ctx, slowReq) }()
			go func() { outcomes <- s.coord.Search(ctx, fastReq) }()

			for i := 0; i < 2; i++ {
				out := <-outcomes
				next, applied := s.state.Resolve(out)
				if out.Seq == slowReq.Seq && applied {
					t.Fatal("the slow, superseded outcome must not apply")
				}
				if applied && out.Record != nil {
					if _, err := s.coord.Record(ctx, out.Record); err != nil {
						t.Fatal(err)
					}
				}
				s.state = next
			}

			if s.state.Query.Term != "matrix" || s.state.Movies[0].Title != "matrix: The Movie" {
				t.Fatalf("state should show the latest query, got %+v", s.state)
			}
			top, err := s.coord.Leaderboard(ctx, 5)
			if err != nil {
				t.Fatal(err)
			}
			for _, c := range top {
				if c.Term == "slow" {
					t.Fatalf("superseded search was counted: %+v", c)
				}
			}
		})
	}
}

func TestPipeline_FailuresKeepResultsAndSkipTrending(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newSession(t, store)

			s.state = s.state.WithTerm("dune")
			s.run(ctx)
			if len(s.state.Movies) != 2 {
				t.Fatalf("expected results, got %+v", s.state)
			}

			s.state = s.state.WithTerm("broken")
			out := s.run(ctx)
			if out.Status != discover.StatusFailed || s.state.Message != discover.MsgFailed {
				t.Fatalf("expected failure, got %+v", out)
			}
			if len(s.state.Movies) != 2 {
				t.Errorf("failed fetch should keep the previous page")
			}

			s.state = s.state.WithTerm("nothing")
			s.run(ctx)
			if s.state.Status != discover.StatusEmpty || s.state.Message != discover.MsgEmpty || len(s.state.Movies) != 0 {
				t.Fatalf("expected empty state, got %+v", s.state)
			}

			top, err := s.coord.Leaderboard(ctx, 5)
			if err != nil {
				t.Fatal(err)
			}
			if len(top) != 1 || top[0].Term != "dune" {
				t.Fatalf("only the successful search should count, got %+v", top)
			}
		})
	}
}

func TestPipeline_LeaderboardOrdering(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newSession(t, store)

			plan := map[string]int{"alien": 3, "heat": 1, "up": 2, "jaws": 5, "rocky": 4, "tron": 2}
			for term, n := range plan {
				for i := 0; i < n; i++ {
					s.state = s.state.WithTerm(term)
					s.run(ctx)
				}
			}

			top, err := s.coord.Leaderboard(ctx, 5)
			if err != nil {
				t.Fatal(err)
			}
			if len(top) != 5 {
				t.Fatalf("expected five entries, got %d", len(top))
			}
			want := []string{"jaws", "rocky", "alien"}
			for i, term := range want {
				if top[i].Term != term {
					t.Errorf("rank %d: want %q, got %q", i+1, term, top[i].Term)
				}
			}
			for i := 1; i < len(top); i++ {
				if top[i-1].Count < top[i].Count {
					t.Errorf("leaderboard not sorted by count: %+v", top)
				}
			}
		})
	}
}

func TestPipeline_PopularPaging(t *testing.T) {
	s := newSession(t, trending.NewMemoryStore())
	ctx := context.Background()

	s.run(ctx)
	if s.state.Query.Page != 1 || s.state.TotalPages != 500 {
		t.Fatalf("unexpected first page %+v", s.state)
	}
	s.state = s.state.NextPage()
	out := s.run(ctx)
	if out.Query.Page != 2 || out.Record != nil {
		t.Fatalf("popular paging should not record, got %+v", out)
	}
}
