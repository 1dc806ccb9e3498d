package catalog

import (
	"fmt"
	"strings"
)

// Movie is the summary record returned by the search and discover endpoints.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	VoteAverage      float64 `json:"vote_average"`
	PosterPath       string  `json:"poster_path"`
	OriginalLanguage string  `json:"original_language"`
	ReleaseDate      string  `json:"release_date"`
	Overview         string  `json:"overview"`
	GenreIDs         []int   `json:"genre_ids"`
	Popularity       float64 `json:"popularity"`
}

// Year returns the release year or "N/A".
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return "N/A"
}

// Rating formats the vote average with one decimal, or "N/A" when unrated.
func (m Movie) Rating() string {
	if m.VoteAverage <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", m.VoteAverage)
}

// PosterURL joins the image base with the poster path. Empty when the
// movie has no poster.
func (m Movie) PosterURL(imageBase string) string {
	if m.PosterPath == "" {
		return ""
	}
	return strings.TrimRight(imageBase, "/") + "/" + strings.TrimLeft(m.PosterPath, "/")
}

// Page is one page of catalog results.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

func (p *Page) Empty() bool {
	return p == nil || len(p.Results) == 0
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

// Details is the full record behind /movie/{id}.
type Details struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Tagline          string  `json:"tagline"`
	Overview         string  `json:"overview"`
	Runtime          int     `json:"runtime"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Genres           []Genre `json:"genres"`
	PosterPath       string  `json:"poster_path"`
	Homepage         string  `json:"homepage"`
	OriginalLanguage string  `json:"original_language"`
	Status           string  `json:"status"`
}

// Summary converts the details record to the summary shape used by the
// trending counters and favorites.
func (d *Details) Summary() Movie {
	ids := make([]int, 0, len(d.Genres))
	for _, g := range d.Genres {
		ids = append(ids, g.ID)
	}
	return Movie{
		ID:               d.ID,
		Title:            d.Title,
		VoteAverage:      d.VoteAverage,
		PosterPath:       d.PosterPath,
		OriginalLanguage: d.OriginalLanguage,
		ReleaseDate:      d.ReleaseDate,
		Overview:         d.Overview,
		GenreIDs:         ids,
	}
}

type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// URL returns a watchable link for YouTube videos.
func (v Video) URL() string {
	if v.Site != "YouTube" || v.Key == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + v.Key
}

type videoList struct {
	Results []Video `json:"results"`
}

// WatchLink points at a streaming page for a title. Fallback is set when
// no provider offered the title in the configured region.
type WatchLink struct {
	URL      string
	Fallback bool
}
