package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/feedback"
	"github.com/pders01/reel/internal/search"
)

type KeyHandler struct {
	app         *App
	keys        config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: cfg.Keys.Bindings, modifierKey: cfg.Keys.Modifier + "+"}
}

// bound returns the full key string for a binding, e.g. "ctrl+t".
func (kh *KeyHandler) bound(key string) string {
	return kh.modifierKey + key
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return kh.app, kh.app.quit()
	}

	if model, cmd, handled := kh.handleGlobalKeys(key); handled {
		return model, cmd
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewDiscover:
		return kh.app.searchInput.Focused()
	case ViewFavorites:
		return kh.app.favoritesInput.Focused()
	case ViewRate, ViewFeedback:
		return true
	default:
		return false
	}
}

// handleGlobalKeys switches between the top-level views. Modifier keys work
// even while an input has focus.
func (kh *KeyHandler) handleGlobalKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case kh.bound(kh.keys.Search):
		a.switchView(ViewDiscover)
		a.movieList.ResetSelected()
		return a, a.searchInput.Focus(), true
	case kh.bound(kh.keys.Trending):
		a.switchView(ViewTrending)
		a.setStatus(MsgLoadingTrending, StatusInfo)
		return a, a.loadTrending(), true
	case kh.bound(kh.keys.Favorites):
		a.switchView(ViewFavorites)
		a.favoritesInput.Reset()
		a.favoritesInput.Blur()
		kh.showEngineStatus()
		return a, a.loadFavorites(""), true
	case kh.bound(kh.keys.Genre):
		a.switchView(ViewGenres)
		if len(a.genres) == 0 {
			return a, a.loadGenres(), true
		}
		return a, nil, true
	case kh.bound(kh.keys.Feedback):
		a.switchView(ViewFeedback)
		a.resetFeedbackForm()
		if !a.feedback.Configured() {
			a.setStatus("feedback email is not configured; set [feedback] in the config", StatusWarn)
		}
		return a, a.focusFeedbackField(0), true
	case kh.bound(kh.keys.Theme):
		a.theme = NextTheme(a.theme)
		ApplyTheme(a.config.UI.Colors, a.theme)
		a.refreshLists()
		return a, tea.Batch(a.saveTheme(a.theme), a.renderDetails()), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	key := msg.String()

	switch a.view {
	case ViewDiscover:
		switch key {
		case "esc":
			a.searchInput.Blur()
			return a, nil
		case "enter":
			a.debouncer.Flush()
			if len(a.movieList.Items()) > 0 {
				a.searchInput.Blur()
			}
			return a, nil
		case "tab", "down":
			if len(a.movieList.Items()) > 0 {
				a.searchInput.Blur()
				a.movieList.Select(0)
			}
			return a, nil
		}
		if model, cmd, handled := kh.handleDiscoverKeys(key); handled {
			return model, cmd
		}
		return kh.delegateToTextInput(msg)

	case ViewFavorites:
		switch key {
		case "esc":
			return kh.navigateBack()
		case "enter", "tab", "down":
			if len(a.favoritesList.Items()) > 0 {
				a.favoritesInput.Blur()
				a.favoritesList.Select(0)
			}
			return a, nil
		}
		return kh.delegateToTextInput(msg)

	case ViewRate:
		switch key {
		case "esc":
			return kh.navigateBack()
		case "enter":
			if a.details == nil {
				return a, nil
			}
			return a, a.saveRating(a.details.Details.ID, a.rateInput.Value())
		}
		return kh.delegateToTextInput(msg)

	case ViewFeedback:
		switch key {
		case "esc":
			return kh.navigateBack()
		case "tab", "down":
			return a, a.focusFeedbackField(a.feedbackFocus + 1)
		case "shift+tab", "up":
			return a, a.focusFeedbackField(a.feedbackFocus - 1)
		case "enter":
			if a.feedbackFocus < len(a.feedbackInputs)-1 {
				return a, a.focusFeedbackField(a.feedbackFocus + 1)
			}
			return kh.submitFeedback()
		}
		return kh.delegateToTextInput(msg)
	}

	return a, nil
}

// delegateToTextInput passes the key to the focused input. Search terms
// go through the debouncer so only the settled value reaches the catalog.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewDiscover:
		prev := a.searchInput.Value()
		a.searchInput, cmd = a.searchInput.Update(msg)
		if value := a.searchInput.Value(); value != prev {
			a.debouncer.Push(capTerm(value, a.config.Search.MaxQueryLength))
		}
		return a, cmd

	case ViewFavorites:
		prev := a.favoritesInput.Value()
		a.favoritesInput, cmd = a.favoritesInput.Update(msg)
		if value := a.favoritesInput.Value(); value != prev {
			return a, tea.Batch(cmd, a.loadFavorites(value))
		}
		return a, cmd

	case ViewRate:
		if msg.Type == tea.KeyRunes && digitsOnly(string(msg.Runes)) != nil {
			return a, nil
		}
		a.rateInput, cmd = a.rateInput.Update(msg)
		return a, cmd

	case ViewFeedback:
		i := a.feedbackFocus
		a.feedbackInputs[i], cmd = a.feedbackInputs[i].Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleCustomKeys handles action keys outside of text input.
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "q":
		return kh.app, kh.app.quit(), true
	case "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewDiscover:
		switch key {
		case "/", "i":
			return kh.app, kh.app.searchInput.Focus(), true
		}
		return kh.handleDiscoverKeys(key)
	case ViewDetails:
		return kh.handleDetailsKeys(key)
	case ViewFavorites:
		if key == "/" {
			return kh.app, kh.app.favoritesInput.Focus(), true
		}
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleDiscoverKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case kh.bound(kh.keys.NextPage):
		next := a.state.NextPage()
		if next.Query == a.state.Query {
			return a, nil, true
		}
		a.state = next
		return a, a.dispatch(), true
	case kh.bound(kh.keys.PrevPage):
		prev := a.state.PrevPage()
		if prev.Query == a.state.Query {
			return a, nil, true
		}
		a.state = prev
		return a, a.dispatch(), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleDetailsKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	if a.details == nil {
		return a, nil, false
	}

	switch key {
	case kh.bound(kh.keys.Favorite):
		return a, a.toggleFavorite(a.details.Details.Summary()), true
	case kh.bound(kh.keys.Rate):
		a.view = ViewRate
		a.rateInput.Reset()
		if a.detailsRating != nil {
			a.rateInput.SetValue(fmt.Sprint(a.detailsRating.Rating))
		}
		return a, a.rateInput.Focus(), true
	case kh.bound(kh.keys.Open):
		url := a.details.Watch.URL
		if url == "" {
			return a, nil, true
		}
		a.setStatus(MsgOpening(url), StatusInfo)
		return a, a.openURL(url), true
	case kh.bound(kh.keys.Trailer):
		if a.details.Trailer == nil || a.details.Trailer.URL() == "" {
			a.setStatus("No trailer available", StatusWarn)
			return a, nil, true
		}
		url := a.details.Trailer.URL()
		a.setStatus(MsgOpening(url), StatusInfo)
		return a, a.openURL(url), true
	}
	return a, nil, false
}

// delegateToCharm lets the list and viewport components handle the rest.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	enter := msg.String() == "enter"

	switch a.view {
	case ViewDiscover:
		if msg.String() == "up" && a.movieList.Index() == 0 {
			return a, a.searchInput.Focus()
		}
		a.movieList, cmd = a.movieList.Update(msg)
		if enter {
			if i, ok := a.movieList.SelectedItem().(movieItem); ok {
				return a, a.openDetails(i.movie.ID)
			}
		}
		return a, cmd

	case ViewTrending:
		a.trendingList, cmd = a.trendingList.Update(msg)
		if enter {
			if i, ok := a.trendingList.SelectedItem().(trendingItem); ok {
				return a, a.openDetails(i.counter.Movie.ID)
			}
		}
		return a, cmd

	case ViewFavorites:
		if msg.String() == "up" && a.favoritesList.Index() == 0 {
			return a, a.favoritesInput.Focus()
		}
		a.favoritesList, cmd = a.favoritesList.Update(msg)
		if enter {
			if i, ok := a.favoritesList.SelectedItem().(favoriteItem); ok {
				return a, a.openDetails(i.favorite.MovieID)
			}
		}
		return a, cmd

	case ViewGenres:
		a.genreList, cmd = a.genreList.Update(msg)
		if enter {
			if i, ok := a.genreList.SelectedItem().(genreItem); ok {
				return kh.selectGenre(i.genre.ID)
			}
		}
		return a, cmd

	case ViewDetails:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	return a, nil
}

// selectGenre applies a genre filter and goes back to the results.
func (kh *KeyHandler) selectGenre(id int) (tea.Model, tea.Cmd) {
	a := kh.app
	a.switchView(ViewDiscover)
	if id == a.state.Query.GenreID {
		return a, nil
	}
	a.state = a.state.WithGenre(id)
	a.refreshGenreList()
	return a, a.dispatch()
}

func (kh *KeyHandler) submitFeedback() (tea.Model, tea.Cmd) {
	a := kh.app
	msg := feedback.Message{
		Name:  a.feedbackInputs[0].Value(),
		Email: a.feedbackInputs[1].Value(),
		Body:  a.feedbackInputs[2].Value(),
	}
	if err := msg.Validate(); err != nil {
		a.setStatus(err.Error(), StatusError)
		return a, nil
	}
	a.setStatus(feedback.StatusSending, StatusInfo)
	return a, a.sendFeedback(msg)
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewRate:
		a.rateInput.Blur()
		a.view = ViewDetails
		return a, nil

	case ViewDetails:
		a.view = a.previousView
		a.details = nil
		a.loadingDetails = false
		return a, nil

	case ViewTrending, ViewFavorites, ViewGenres, ViewFeedback:
		a.switchView(ViewDiscover)
		return a, nil

	default:
		return a, a.quit()
	}
}

// showEngineStatus reports which favorites search engine is active.
func (kh *KeyHandler) showEngineStatus() {
	if ds, ok := kh.app.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			kh.app.setStatus(fmt.Sprintf("Local search: index • %d docs", n), StatusInfo)
			return
		}
	}
	kh.app.setStatus("Local search: scan", StatusInfo)
}

// GetHelpForCurrentView returns the custom key help shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	m := kh.bound
	k := kh.keys
	switch kh.app.view {
	case ViewDiscover:
		return []string{
			m(k.Genre) + ": genre", m(k.PrevPage) + "/" + m(k.NextPage) + ": page",
			m(k.Trending) + ": trending", m(k.Favorites) + ": favorites", m(k.Feedback) + ": feedback",
		}
	case ViewDetails:
		return []string{
			m(k.Favorite) + ": favorite", m(k.Rate) + ": rate",
			m(k.Trailer) + ": trailer", m(k.Open) + ": watch", "esc: back",
		}
	case ViewTrending:
		return []string{"enter: details", m(k.Search) + ": search", "esc: back"}
	case ViewFavorites:
		return []string{"/: search favorites", "enter: details", "esc: back"}
	case ViewGenres:
		return []string{"enter: apply", "esc: back"}
	case ViewRate:
		return []string{"1-10", "enter: save", "esc: cancel"}
	case ViewFeedback:
		return []string{"tab: next field", "enter: send", "esc: cancel"}
	default:
		return []string{}
	}
}
