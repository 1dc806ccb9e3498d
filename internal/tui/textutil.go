package tui

import "fmt"

// truncateEnd shortens s to at most limit runes, ending in an ellipsis
// when it had to cut.
func truncateEnd(s string, limit int) string {
	r := []rune(s)
	switch {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	case limit == 1:
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which is what matters for URLs.
func truncateMiddle(s string, limit int) string {
	r := []rune(s)
	switch {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	case limit == 1:
		return "…"
	}
	left := (limit - 1) / 2
	right := limit - 1 - left
	return string(r[:left]) + "…" + string(r[len(r)-right:])
}

// formatRuntime renders minutes as "2h 28m".
func formatRuntime(minutes int) string {
	if minutes <= 0 {
		return "N/A"
	}
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// capTerm bounds the length of a search term. The term is otherwise kept
// exactly as typed, because trending counters match terms verbatim.
func capTerm(input string, maxLen int) string {
	if maxLen > 0 {
		if r := []rune(input); len(r) > maxLen {
			return string(r[:maxLen])
		}
	}
	return input
}
