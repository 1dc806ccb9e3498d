package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/discover"
	"github.com/pders01/reel/internal/feedback"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
	"github.com/pders01/reel/internal/trending"
)

type termCommittedMsg struct {
	term string
}

type outcomeMsg struct {
	outcome discover.Outcome
}

type recordedMsg struct {
	counter *trending.Counter
	err     error
}

type trendingLoadedMsg struct {
	counters []*trending.Counter
	err      error
}

type genresLoadedMsg struct {
	genres []catalog.Genre
	err    error
}

type detailsLoadedMsg struct {
	id       int64
	details  *discover.MovieDetails
	favorite bool
	rating   *storage.Rating
	err      error
}

type detailsRenderedMsg struct {
	content string
}

type favoritesLoadedMsg struct {
	query string
	items []favoriteItem
	err   error
}

type favoriteToggledMsg struct {
	title string
	added bool
	err   error
}

type ratingSavedMsg struct {
	rating *storage.Rating
	err    error
}

type feedbackSentMsg struct {
	err error
}

type themeSavedMsg struct {
	err error
}

type errorMsg struct {
	err error
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// waitForCommit blocks until the debouncer commits a term. Update re-arms
// it after every commit.
func (a *App) waitForCommit() tea.Cmd {
	return func() tea.Msg {
		select {
		case term := <-a.commits:
			return termCommittedMsg{term: term}
		case <-a.ctx.Done():
			return nil
		}
	}
}

// dispatch starts a catalog query for the current state.
func (a *App) dispatch() tea.Cmd {
	var req discover.Request
	a.state, req = a.state.Begin()
	return tea.Batch(a.spinner.Tick, a.runSearch(req))
}

func (a *App) runSearch(req discover.Request) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg{outcome: a.coordinator.Search(a.ctx, req)}
	}
}

func (a *App) recordSearch(rec *discover.RecordSearch) tea.Cmd {
	return func() tea.Msg {
		counter, err := a.coordinator.Record(a.ctx, rec)
		return recordedMsg{counter: counter, err: err}
	}
}

func (a *App) loadTrending() tea.Cmd {
	limit := a.config.Trending.Limit
	return func() tea.Msg {
		counters, err := a.coordinator.Leaderboard(a.ctx, limit)
		return trendingLoadedMsg{counters: counters, err: wrapErr("loading trending", err)}
	}
}

func (a *App) loadGenres() tea.Cmd {
	return func() tea.Msg {
		genres, err := a.coordinator.Genres(a.ctx)
		return genresLoadedMsg{genres: genres, err: wrapErr("loading genres", err)}
	}
}

func (a *App) loadDetails(id int64) tea.Cmd {
	return func() tea.Msg {
		md, err := a.coordinator.Details(a.ctx, id)
		if err != nil {
			return detailsLoadedMsg{id: id, err: wrapErr("loading details", err)}
		}

		favorite, err := a.store.IsFavorite(id)
		if err != nil {
			debuglog.Warnf("favorite lookup for %d: %v", id, err)
		}
		rating, err := a.store.GetRating(id)
		if err != nil {
			rating = nil
		}
		return detailsLoadedMsg{id: id, details: md, favorite: favorite, rating: rating}
	}
}

// renderDetails styles the current details page. The renderer is resolved
// on the Update goroutine and only used inside the command.
func (a *App) renderDetails() tea.Cmd {
	if a.details == nil {
		return nil
	}
	md, favorite, rating := a.details, a.detailsFavorite, a.detailsRating
	keys := keyHelp{
		open:    a.keyHandler.bound(a.config.Keys.Bindings.Open),
		trailer: a.keyHandler.bound(a.config.Keys.Bindings.Trailer),
	}
	r, err := a.renderer()
	return func() tea.Msg {
		text := detailsMarkdown(md, favorite, rating, keys)
		if err != nil {
			return detailsRenderedMsg{content: text}
		}
		return detailsRenderedMsg{content: renderMarkdown(r, text)}
	}
}

func renderMarkdown(r *glamour.TermRenderer, text string) string {
	rendered, err := r.Render(text)
	if err != nil {
		debuglog.Warnf("render details: %v", err)
		return text
	}
	return rendered
}

// loadFavorites lists saved favorites, or searches them once the query is
// long enough for the local index.
func (a *App) loadFavorites(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	return func() tea.Msg {
		if len([]rune(query)) >= 2 {
			results, err := a.searcher.Search(query, 50)
			if err != nil {
				return favoritesLoadedMsg{query: query, err: wrapErr("searching favorites", err)}
			}
			items := make([]favoriteItem, 0, len(results))
			for _, r := range results {
				items = append(items, favoriteItemFromResult(r))
			}
			return favoritesLoadedMsg{query: query, items: items}
		}

		favs, err := a.store.GetFavorites()
		if err != nil {
			return favoritesLoadedMsg{query: query, err: wrapErr("loading favorites", err)}
		}
		items := make([]favoriteItem, 0, len(favs))
		for _, f := range favs {
			items = append(items, favoriteItem{favorite: f})
		}
		return favoritesLoadedMsg{query: query, items: items}
	}
}

func (a *App) toggleFavorite(movie catalog.Movie) tea.Cmd {
	imageBase := a.config.Catalog.ImageBaseURL
	return func() tea.Msg {
		userID, err := a.store.GuestID()
		if err != nil {
			return favoriteToggledMsg{err: err}
		}
		fav := storage.FavoriteFrom(userID, movie, imageBase)
		added, err := a.store.ToggleFavorite(fav)
		if err != nil {
			return favoriteToggledMsg{err: wrapErr("saving favorite", err)}
		}

		if l, ok := a.searcher.(search.UpdateListener); ok {
			if added {
				l.OnFavoriteSaved(fav)
			} else {
				l.OnFavoriteRemoved(movie.ID)
			}
		}
		return favoriteToggledMsg{title: movie.Title, added: added}
	}
}

func (a *App) saveRating(movieID int64, input string) tea.Cmd {
	return func() tea.Msg {
		value, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return ratingSavedMsg{err: storage.ErrInvalidRating}
		}
		userID, err := a.store.GuestID()
		if err != nil {
			return ratingSavedMsg{err: err}
		}
		rating, err := a.store.SaveRating(userID, movieID, value)
		return ratingSavedMsg{rating: rating, err: err}
	}
}

func (a *App) sendFeedback(msg feedback.Message) tea.Cmd {
	return func() tea.Msg {
		return feedbackSentMsg{err: a.feedback.Send(a.ctx, msg)}
	}
}

func (a *App) saveTheme(theme string) tea.Cmd {
	return func() tea.Msg {
		return themeSavedMsg{err: wrapErr("saving theme", a.store.SetTheme(theme))}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(url); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", url, err)}
		}
		return nil
	}
}
