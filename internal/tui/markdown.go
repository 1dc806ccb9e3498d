package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/pders01/reel/internal/discover"
	"github.com/pders01/reel/internal/storage"
)

// detailsMarkdown lays out the details view before glamour styles it.
func detailsMarkdown(md *discover.MovieDetails, favorite bool, rating *storage.Rating, keys keyHelp) string {
	d := md.Details
	var b strings.Builder

	title := d.Title
	if favorite {
		title = "♥ " + title
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if d.Tagline != "" {
		fmt.Fprintf(&b, "*%s*\n\n", d.Tagline)
	}

	summary := d.Summary()
	facts := []string{
		"★ " + summary.Rating(),
		summary.Year(),
		formatRuntime(d.Runtime),
	}
	if d.OriginalLanguage != "" {
		facts = append(facts, d.OriginalLanguage)
	}
	b.WriteString(strings.Join(facts, " • "))
	b.WriteString("\n\n")

	if len(d.Genres) > 0 {
		names := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			names = append(names, "`"+g.Name+"`")
		}
		fmt.Fprintf(&b, "%s\n\n", strings.Join(names, " "))
	}

	if rating != nil {
		fmt.Fprintf(&b, "**Your rating:** %d/10\n\n", rating.Rating)
	}

	b.WriteString("---\n\n")
	if d.Overview != "" {
		b.WriteString(d.Overview)
	} else {
		b.WriteString("_No overview available._")
	}
	b.WriteString("\n\n---\n\n")

	if md.Trailer != nil && md.Trailer.URL() != "" {
		fmt.Fprintf(&b, "- **Trailer** (%s): %s\n", keys.trailer, md.Trailer.URL())
	} else {
		b.WriteString("- **Trailer:** not available\n")
	}
	watch := "Watch now"
	if md.Watch.Fallback {
		watch = "Search on Netflix"
	}
	fmt.Fprintf(&b, "- **%s** (%s): %s\n", watch, keys.open, md.Watch.URL)
	if d.Homepage != "" {
		fmt.Fprintf(&b, "- **Homepage:** %s\n", d.Homepage)
	}

	return b.String()
}

// keyHelp carries the rendered key names shown inline in the details page.
type keyHelp struct {
	open    string
	trailer string
}

// renderer returns a glamour renderer sized for the current width. It is
// rebuilt when the width drifts or the theme changes.
func (a *App) renderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 100 {
		wordWrapWidth = 100
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	drift := a.rendererWidth - wordWrapWidth
	if drift < 0 {
		drift = -drift
	}
	if a.glamourRenderer == nil || drift > 10 || a.rendererTheme != a.theme {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(a.theme),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
		a.rendererTheme = a.theme
	}

	return a.glamourRenderer, nil
}
