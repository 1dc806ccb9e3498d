package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/discover"
	"github.com/pders01/reel/internal/storage"
)

func sampleDetails() *discover.MovieDetails {
	return &discover.MovieDetails{
		Details: &catalog.Details{
			ID:               27205,
			Title:            "Inception",
			Tagline:          "Your mind is the scene of the crime.",
			Overview:         "Cobb steals secrets from dreams.",
			Runtime:          148,
			ReleaseDate:      "2010-07-15",
			VoteAverage:      8.369,
			Genres:           []catalog.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
			Homepage:         "https://www.warnerbros.com/movies/inception",
			OriginalLanguage: "en",
		},
		Trailer: &catalog.Video{Key: "YoHD9XEInc0", Site: "YouTube", Type: "Trailer"},
		Watch:   catalog.WatchLink{URL: "https://www.netflix.com/title/70131314"},
	}
}

func TestDetailsMarkdown(t *testing.T) {
	keys := keyHelp{open: "ctrl+o", trailer: "ctrl+y"}
	out := detailsMarkdown(sampleDetails(), true, &storage.Rating{Rating: 9}, keys)

	for _, want := range []string{
		"# ♥ Inception",
		"*Your mind is the scene of the crime.*",
		"★ 8.4 • 2010 • 2h 28m • en",
		"`Action` `Science Fiction`",
		"**Your rating:** 9/10",
		"Cobb steals secrets from dreams.",
		"**Trailer** (ctrl+y): https://www.youtube.com/watch?v=YoHD9XEInc0",
		"**Watch now** (ctrl+o): https://www.netflix.com/title/70131314",
		"**Homepage:** https://www.warnerbros.com/movies/inception",
	} {
		assert.Contains(t, out, want)
	}
}

func TestDetailsMarkdown_Fallbacks(t *testing.T) {
	md := sampleDetails()
	md.Details.Overview = ""
	md.Details.Homepage = ""
	md.Details.Runtime = 0
	md.Trailer = nil
	md.Watch = catalog.WatchLink{URL: "https://www.netflix.com/search?q=Inception", Fallback: true}

	out := detailsMarkdown(md, false, nil, keyHelp{})
	assert.True(t, strings.HasPrefix(out, "# Inception\n"))
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "_No overview available._")
	assert.Contains(t, out, "**Trailer:** not available")
	assert.Contains(t, out, "**Search on Netflix**")
	assert.NotContains(t, out, "Your rating")
	assert.NotContains(t, out, "Homepage")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		limit  int
		end    string
		middle string
	}{
		{"short", 10, "short", "short"},
		{"abcdefghij", 5, "abcd…", "ab…ij"},
		{"abc", 1, "…", "…"},
		{"abc", 0, "", ""},
		{"ünïcödé", 4, "ünï…", "ü…dé"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.end, truncateEnd(tt.in, tt.limit), "truncateEnd(%q, %d)", tt.in, tt.limit)
		assert.Equal(t, tt.middle, truncateMiddle(tt.in, tt.limit), "truncateMiddle(%q, %d)", tt.in, tt.limit)
	}
}

func TestFormatRuntime(t *testing.T) {
	assert.Equal(t, "2h 28m", formatRuntime(148))
	assert.Equal(t, "45m", formatRuntime(45))
	assert.Equal(t, "2h 0m", formatRuntime(120))
	assert.Equal(t, "N/A", formatRuntime(0))
}

func TestCapTerm(t *testing.T) {
	assert.Equal(t, "  Batman ", capTerm("  Batman ", 256), "terms are never trimmed")
	assert.Equal(t, "bat", capTerm("batman", 3))
	assert.Equal(t, "ãé", capTerm("ãéí", 2))
	assert.Equal(t, "batman", capTerm("batman", 0))
}

func TestStatusMessages(t *testing.T) {
	assert.Equal(t, "Page 2 of 14", MsgPage(2, 14))
	assert.Equal(t, "Page 1", MsgPage(1, 0))
	assert.Equal(t, "1 result", MsgResultsCount(1))
	assert.Equal(t, "3 results", MsgResultsCount(3))
	assert.LessOrEqual(t, len([]rune(MsgOpening(strings.Repeat("x", 200)))), len("Opening ")+48)
}
