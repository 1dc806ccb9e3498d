package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debounce"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/discover"
	"github.com/pders01/reel/internal/feedback"
	"github.com/pders01/reel/internal/media"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
)

var allGenres = catalog.Genre{ID: 0, Name: "All genres"}

// Deps are the services the App drives. Searcher, Launcher and Feedback
// are built from the config when left nil.
type Deps struct {
	Coordinator *discover.Coordinator
	Store       *storage.Store
	Searcher    search.Searcher
	Launcher    *media.Launcher
	Feedback    *feedback.Sender
}

type Option func(*appOptions)

type appOptions struct {
	ctx      context.Context
	debounce []debounce.Option
}

// WithContext bounds every catalog and store call the App makes.
func WithContext(ctx context.Context) Option {
	return func(o *appOptions) { o.ctx = ctx }
}

// WithDebounceOptions configures the search debouncer, e.g. a fake clock.
func WithDebounceOptions(opts ...debounce.Option) Option {
	return func(o *appOptions) { o.debounce = append(o.debounce, opts...) }
}

type App struct {
	config      *config.Config
	ctx         context.Context
	cancel      context.CancelFunc
	coordinator *discover.Coordinator
	store       *storage.Store
	searcher    search.Searcher
	launcher    *media.Launcher
	feedback    *feedback.Sender
	keyHandler  *KeyHandler

	state     discover.State
	debouncer *debounce.Debouncer[string]
	commits   chan string

	movieList      list.Model
	trendingList   list.Model
	favoritesList  list.Model
	genreList      list.Model
	searchInput    textinput.Model
	favoritesInput textinput.Model
	rateInput      textinput.Model
	feedbackInputs []textinput.Model
	feedbackFocus  int
	viewport       viewport.Model
	spinner        spinner.Model

	view         View
	previousView View
	genres       []catalog.Genre
	favoriteIDs  map[int64]bool

	details         *discover.MovieDetails
	detailsFavorite bool
	detailsRating   *storage.Rating
	detailsID       int64
	loadingDetails  bool
	freshDetails    bool

	theme      string
	width      int
	height     int
	status     string
	statusKind StatusKind
	err        error

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	rendererTheme   string
}

func newList(title string, filtering bool) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(filtering)
	l.SetShowHelp(false)
	return l
}

func NewApp(cfg *config.Config, deps Deps, opts ...Option) *App {
	o := appOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(o.ctx)

	si := textinput.New()
	si.Placeholder = "Search through thousands of movies"
	si.Prompt = "⌕ "
	si.CharLimit = cfg.Search.MaxQueryLength
	si.Focus()

	fi := textinput.New()
	fi.Placeholder = "Search your favorites..."
	fi.Prompt = "⌕ "

	ri := textinput.New()
	ri.Placeholder = "1-10"
	ri.CharLimit = 2

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := &App{
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
		coordinator:    deps.Coordinator,
		store:          deps.Store,
		searcher:       deps.Searcher,
		launcher:       deps.Launcher,
		feedback:       deps.Feedback,
		state:          discover.NewState(),
		commits:        make(chan string, 1),
		movieList:      newList("› movies", false),
		trendingList:   newList("› trending", true),
		favoritesList:  newList("› favorites", false),
		genreList:      newList("› genres", true),
		searchInput:    si,
		favoritesInput: fi,
		rateInput:      ri,
		feedbackInputs: newFeedbackInputs(),
		viewport:       viewport.New(0, 0),
		spinner:        sp,
		view:           ViewDiscover,
		previousView:   ViewDiscover,
		favoriteIDs:    make(map[int64]bool),
		theme:          cfg.UI.Theme,
	}

	if app.searcher == nil {
		app.searcher = search.NewEngine(deps.Store)
	}
	if app.launcher == nil {
		app.launcher = media.NewLauncher(cfg.Media)
	}
	if app.feedback == nil {
		app.feedback = feedback.NewSender(cfg.Feedback)
	}

	if saved, err := deps.Store.Theme(); err == nil && saved != "" {
		app.theme = saved
	}
	if app.theme != ThemeLight {
		app.theme = ThemeDark
	}
	ApplyTheme(cfg.UI.Colors, app.theme)

	app.debouncer = debounce.New(cfg.Search.DebounceDelay, app.commit, o.debounce...)
	app.keyHandler = NewKeyHandler(app, cfg)
	app.refreshGenreList()

	return app
}

func newFeedbackInputs() []textinput.Model {
	name := textinput.New()
	name.Placeholder = "Your name"
	name.CharLimit = 100

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	body := textinput.New()
	body.Placeholder = "What should we improve?"
	body.CharLimit = feedback.MaxBodyLength

	return []textinput.Model{name, email, body}
}

func digitsOnly(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return storage.ErrInvalidRating
		}
	}
	return nil
}

// commit runs on the debouncer's timer goroutine. Only the newest term is
// kept if the UI has not picked up the previous one yet.
func (a *App) commit(term string) {
	select {
	case <-a.commits:
	default:
	}
	select {
	case a.commits <- term:
	default:
	}
}

func (a *App) quit() tea.Cmd {
	a.debouncer.Stop()
	a.cancel()
	return tea.Quit
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	a.err = nil
}

func (a *App) switchView(v View) {
	a.view = v
	a.err = nil
	a.status = ""
	a.details = nil
	a.loadingDetails = false
	a.searchInput.Blur()
	a.favoritesInput.Blur()
	a.rateInput.Blur()
	for i := range a.feedbackInputs {
		a.feedbackInputs[i].Blur()
	}
}

// openDetails loads the details page for a movie.
func (a *App) openDetails(id int64) tea.Cmd {
	if a.view != ViewDetails && a.view != ViewRate {
		a.previousView = a.view
	}
	a.view = ViewDetails
	a.details = nil
	a.detailsID = id
	a.detailsRating = nil
	a.detailsFavorite = false
	a.loadingDetails = true
	a.freshDetails = true
	a.viewport.SetContent("")
	a.setStatus(MsgLoadingDetails, StatusInfo)
	return tea.Batch(a.spinner.Tick, a.loadDetails(id))
}

func (a *App) resetFeedbackForm() {
	for i := range a.feedbackInputs {
		a.feedbackInputs[i].Reset()
	}
	a.feedbackFocus = 0
}

func (a *App) focusFeedbackField(i int) tea.Cmd {
	n := len(a.feedbackInputs)
	i = ((i % n) + n) % n
	for j := range a.feedbackInputs {
		a.feedbackInputs[j].Blur()
	}
	a.feedbackFocus = i
	return a.feedbackInputs[i].Focus()
}

func (a *App) refreshMovieList() {
	items := make([]list.Item, len(a.state.Movies))
	for i, m := range a.state.Movies {
		items[i] = movieItem{movie: m, favorite: a.favoriteIDs[m.ID]}
	}
	a.movieList.SetItems(items)
}

func (a *App) refreshGenreList() {
	items := make([]list.Item, 0, len(a.genres)+1)
	items = append(items, genreItem{genre: allGenres, selected: a.state.Query.GenreID == 0})
	for _, g := range a.genres {
		items = append(items, genreItem{genre: g, selected: g.ID == a.state.Query.GenreID})
	}
	a.genreList.SetItems(items)
}

// refreshLists re-renders list items after the palette changed.
func (a *App) refreshLists() {
	a.refreshMovieList()
	a.refreshGenreList()
	a.trendingList.SetItems(a.trendingList.Items())
	a.favoritesList.SetItems(a.favoritesList.Items())
}

func (a *App) genreName() string {
	if a.state.Query.GenreID == 0 {
		return ""
	}
	for _, g := range a.genres {
		if g.ID == a.state.Query.GenreID {
			return g.Name
		}
	}
	return ""
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.waitForCommit(),
		a.dispatch(),
		a.loadFavorites(""),
		a.loadGenres(),
		textinput.Blink,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		listHeight := max(msg.Height-10, 5)
		a.movieList.SetSize(msg.Width, listHeight)
		a.favoritesList.SetSize(msg.Width, listHeight)
		a.trendingList.SetSize(msg.Width, max(msg.Height-5, 5))
		a.genreList.SetSize(msg.Width, max(msg.Height-5, 5))
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3
		inputWidth := max(msg.Width-8, 10)
		a.searchInput.Width = inputWidth
		a.favoritesInput.Width = inputWidth
		if a.details != nil {
			cmds = append(cmds, a.renderDetails())
		}

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if a.state.Loading() || a.loadingDetails {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case termCommittedMsg:
		cmds = append(cmds, a.waitForCommit())
		if msg.term != a.state.Query.Term {
			a.state = a.state.WithTerm(msg.term)
			a.movieList.ResetSelected()
			cmds = append(cmds, a.dispatch())
		}
		return a, tea.Batch(cmds...)

	case outcomeMsg:
		next, applied := a.state.Resolve(msg.outcome)
		if !applied {
			debuglog.Debugf("discarding superseded outcome seq=%d (latest %d)", msg.outcome.Seq, a.state.Seq)
			return a, nil
		}
		a.state = next
		a.refreshMovieList()
		if msg.outcome.Record != nil {
			cmds = append(cmds, a.recordSearch(msg.outcome.Record))
		}
		return a, tea.Batch(cmds...)

	case recordedMsg:
		if msg.err == nil && a.view == ViewTrending {
			return a, a.loadTrending()
		}
		return a, nil

	case trendingLoadedMsg:
		if msg.err != nil {
			a.err = msg.err
			break
		}
		items := make([]list.Item, len(msg.counters))
		for i, c := range msg.counters {
			items[i] = trendingItem{rank: i + 1, counter: c}
		}
		a.trendingList.SetItems(items)
		if a.view == ViewTrending {
			if len(items) == 0 {
				a.setStatus(MsgNoTrending, StatusInfo)
			} else {
				a.setStatus("", StatusInfo)
			}
		}

	case genresLoadedMsg:
		if msg.err != nil {
			if a.view == ViewGenres {
				a.err = msg.err
			}
			debuglog.Warnf("genres: %v", msg.err)
			break
		}
		a.genres = msg.genres
		a.refreshGenreList()

	case detailsLoadedMsg:
		if a.view != ViewDetails || !a.loadingDetails || msg.id != a.detailsID {
			return a, nil
		}
		a.loadingDetails = false
		if msg.err != nil {
			a.err = msg.err
			a.viewport.SetContent(MsgFailedDetails)
			return a, nil
		}
		a.setStatus("", StatusInfo)
		a.details = msg.details
		a.detailsFavorite = msg.favorite
		a.detailsRating = msg.rating
		return a, a.renderDetails()

	case detailsRenderedMsg:
		if a.view == ViewDetails || a.view == ViewRate {
			a.viewport.SetContent(msg.content)
			if a.freshDetails {
				a.viewport.GotoTop()
				a.freshDetails = false
			}
		}

	case favoritesLoadedMsg:
		if msg.err != nil {
			a.err = msg.err
			break
		}
		if msg.query == "" {
			a.favoriteIDs = make(map[int64]bool, len(msg.items))
			for _, it := range msg.items {
				a.favoriteIDs[it.favorite.MovieID] = true
			}
			a.refreshMovieList()
		}
		if a.view == ViewFavorites && msg.query == strings.TrimSpace(a.favoritesInput.Value()) {
			items := make([]list.Item, len(msg.items))
			for i, it := range msg.items {
				items[i] = it
			}
			a.favoritesList.SetItems(items)
			switch {
			case len(items) == 0 && msg.query == "":
				a.setStatus(MsgNoFavorites, StatusInfo)
			case len(items) == 0:
				a.setStatus(MsgNoResults, StatusInfo)
			case msg.query != "":
				a.setStatus(MsgResultsCount(len(items)), StatusInfo)
			}
		}

	case favoriteToggledMsg:
		if msg.err != nil {
			a.err = msg.err
			break
		}
		a.setStatus(MsgFavoriteToggled(msg.title, msg.added), StatusSuccess)
		if a.details != nil {
			a.detailsFavorite = msg.added
			cmds = append(cmds, a.renderDetails())
		}
		cmds = append(cmds, a.loadFavorites(""))

	case ratingSavedMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusError)
			break
		}
		a.detailsRating = msg.rating
		a.rateInput.Blur()
		if a.view == ViewRate {
			a.view = ViewDetails
		}
		a.setStatus(MsgRatingSaved, StatusSuccess)
		cmds = append(cmds, a.renderDetails())

	case feedbackSentMsg:
		if msg.err != nil {
			debuglog.Warnf("feedback: %v", msg.err)
			a.setStatus(feedback.StatusFor(msg.err), StatusError)
			break
		}
		a.setStatus(feedback.StatusFor(nil), StatusSuccess)
		a.resetFeedbackForm()
		cmds = append(cmds, a.focusFeedbackField(0))

	case themeSavedMsg:
		if msg.err != nil {
			a.err = msg.err
			break
		}
		a.setStatus(MsgThemeSaved, StatusSuccess)

	case errorMsg:
		a.err = msg.err
	}

	switch a.view {
	case ViewDiscover:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	case ViewFavorites:
		var cmd tea.Cmd
		a.favoritesInput, cmd = a.favoritesInput.Update(msg)
		cmds = append(cmds, cmd)
	case ViewTrending:
		var cmd tea.Cmd
		a.trendingList, cmd = a.trendingList.Update(msg)
		cmds = append(cmds, cmd)
	case ViewGenres:
		var cmd tea.Cmd
		a.genreList, cmd = a.genreList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	contentHeight := a.height - 3
	var content string

	switch a.view {
	case ViewDiscover:
		content = a.discoverView(contentHeight)
	case ViewDetails:
		if a.loadingDetails {
			content = renderCentered(a.width, contentHeight, a.spinner.View()+" "+renderMuted(MsgLoadingDetails))
		} else {
			content = a.viewport.View()
		}
	case ViewTrending:
		if len(a.trendingList.Items()) == 0 {
			content = renderCentered(a.width, contentHeight, renderMuted(MsgNoTrending))
		} else {
			content = a.trendingList.View()
		}
	case ViewFavorites:
		content = lipgloss.JoinVertical(lipgloss.Top,
			renderHeader("› favorites", "Saved on this device", a.width),
			"",
			renderInputFrame(a.favoritesInput.View(), a.favoritesInput.Focused(), a.favoritesInput.Width),
			a.favoritesList.View(),
		)
	case ViewGenres:
		content = a.genreList.View()
	case ViewRate:
		title := ""
		if a.details != nil {
			title = a.details.Details.Title
		}
		content = renderCentered(a.width, contentHeight, lipgloss.JoinVertical(lipgloss.Center,
			TitleStyle.Render("› rate"),
			"",
			HeaderStyle.Render(truncateEnd(title, max(a.width-8, 10))),
			"",
			renderInputFrame(a.rateInput.View(), true, 8),
			"",
			renderHelp("Enter a whole number from 1 to 10"),
		))
	case ViewFeedback:
		content = a.feedbackView(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(max(contentHeight, 0)).
		MaxHeight(max(contentHeight, 0)).
		Render(content)

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) discoverView(height int) string {
	subtitle := MsgPage(a.state.Query.Page, a.state.TotalPages)
	if g := a.genreName(); g != "" {
		subtitle = g + " • " + subtitle
	}
	heading := "› popular"
	if a.state.Query.Term != "" {
		heading = "› results for " + a.state.Query.Term
	}

	top := lipgloss.JoinVertical(lipgloss.Top,
		lipgloss.JoinHorizontal(lipgloss.Top,
			LogoStyle.Render(CompactLogo)+" ",
			renderHeader(heading, subtitle, a.width-8),
		),
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
	)

	var line string
	switch {
	case a.state.Loading():
		line = a.spinner.View() + " " + renderMuted(MsgLoadingMovies)
	case a.state.Status == discover.StatusFailed:
		line = renderStatus(a.state.Message, StatusError)
	case a.state.Status == discover.StatusEmpty:
		line = renderStatus(a.state.Message, StatusWarn)
	default:
		line = ""
	}

	var body string
	if len(a.state.Movies) == 0 {
		body = renderCentered(a.width, max(height-lipgloss.Height(top)-1, 1), GetWelcomeMessage())
	} else {
		body = a.movieList.View()
	}

	return lipgloss.JoinVertical(lipgloss.Top, top, line, body)
}

func (a *App) feedbackView(height int) string {
	labels := []string{"Name", "Email", "Message"}
	rows := []string{TitleStyle.Render("› feedback"), ""}
	for i, in := range a.feedbackInputs {
		rows = append(rows,
			renderMuted(labels[i]),
			renderInputFrame(in.View(), i == a.feedbackFocus, max(min(a.width-12, 60), 20)),
		)
	}
	rows = append(rows, "", renderHelp("Tab to move between fields, Enter on the message to send"))
	return renderCentered(a.width, height, lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) statusBar() string {
	bar := lipgloss.NewStyle().Width(a.width).Padding(0, 1)

	if a.err != nil {
		return bar.Render(renderStatus(a.err.Error(), StatusError))
	}

	parts := make([]string, 0, 2)
	if a.status != "" {
		parts = append(parts, renderStatus(a.status, a.statusKind))
	}
	if commands := a.keyHandler.GetHelpForCurrentView(); len(commands) > 0 {
		parts = append(parts, renderMuted(strings.Join(commands, " • ")))
	}
	return bar.Render(strings.Join(parts, renderMuted("  │  ")))
}
