package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
	"github.com/pders01/reel/internal/trending"
)

type movieItem struct {
	movie    catalog.Movie
	favorite bool
}

func (i movieItem) Title() string {
	title := i.movie.Title
	if i.favorite {
		title = FavoriteStyle.Render("♥ ") + title
	}
	return title
}

func (i movieItem) Description() string {
	parts := []string{
		RatingStyle.Render("★ " + i.movie.Rating()),
		i.movie.Year(),
	}
	if i.movie.OriginalLanguage != "" {
		parts = append(parts, i.movie.OriginalLanguage)
	}
	return renderMuted(strings.Join(parts, " • "))
}

func (i movieItem) FilterValue() string { return i.movie.Title }

type trendingItem struct {
	rank    int
	counter *trending.Counter
}

func (i trendingItem) Title() string {
	return RankStyle.Render(fmt.Sprintf("%d.", i.rank)) + " " + i.counter.Movie.Title
}

func (i trendingItem) Description() string {
	times := "times"
	if i.counter.Count == 1 {
		times = "time"
	}
	return renderMuted(fmt.Sprintf("searched %q • %d %s", i.counter.Term, i.counter.Count, times))
}

func (i trendingItem) FilterValue() string { return i.counter.Term }

type favoriteItem struct {
	favorite *storage.Favorite
	snippet  string
}

func (i favoriteItem) Title() string {
	return FavoriteStyle.Render("♥ ") + i.favorite.Title
}

func (i favoriteItem) Description() string {
	if i.snippet != "" {
		return renderMuted(truncateEnd(i.snippet, 80))
	}
	year := "N/A"
	if len(i.favorite.ReleaseDate) >= 4 {
		year = i.favorite.ReleaseDate[:4]
	}
	rating := "N/A"
	if i.favorite.VoteAverage > 0 {
		rating = fmt.Sprintf("%.1f", i.favorite.VoteAverage)
	}
	return renderMuted(RatingStyle.Render("★ "+rating) + " • " + year)
}

func (i favoriteItem) FilterValue() string { return i.favorite.Title }

func favoriteItemFromResult(r *search.Result) favoriteItem {
	item := favoriteItem{favorite: r.Favorite}
	for _, m := range r.Matches {
		if m.Field != "title" {
			item.snippet = m.Text
			break
		}
	}
	return item
}

type genreItem struct {
	genre    catalog.Genre
	selected bool
}

func (i genreItem) Title() string {
	if i.selected {
		return HeaderStyle.Render("› " + i.genre.Name)
	}
	return i.genre.Name
}

func (i genreItem) Description() string {
	if i.genre.ID == 0 {
		return renderMuted("no filter")
	}
	return ""
}

func (i genreItem) FilterValue() string { return i.genre.Name }
