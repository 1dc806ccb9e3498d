package tui

import (
	"fmt"
	"strings"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoadingMovies   = "Loading movies…"
	MsgLoadingDetails  = "Loading details…"
	MsgLoadingTrending = "Loading trending…"
	MsgNoTrending      = "No trending searches yet"
	MsgNoFavorites     = "No favorites yet"
	MsgNoResults       = "No results"
	MsgRatingSaved     = "Rating saved"
	MsgThemeSaved      = "Theme saved"
	MsgFailedDetails   = "Failed to load movie details. Press Esc to go back."
)

func MsgFavoriteToggled(title string, added bool) string {
	if added {
		return fmt.Sprintf("Added '%s' to favorites", strings.TrimSpace(title))
	}
	return fmt.Sprintf("Removed '%s' from favorites", strings.TrimSpace(title))
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgPage renders the pager, e.g. "Page 2 of 14".
func MsgPage(page, total int) string {
	if total <= 0 {
		return fmt.Sprintf("Page %d", page)
	}
	return fmt.Sprintf("Page %d of %d", page, total)
}

func MsgOpening(target string) string {
	return "Opening " + truncateMiddle(target, 48)
}
