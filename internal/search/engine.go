package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/storage"
)

// Engine scores favorites on the fly without an index
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	favorites, err := e.source.GetFavorites()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, fav := range favorites {
		if r := scoreFavorite(fav, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []*Result{}
	}
	return results, nil
}

func scoreFavorite(fav *storage.Favorite, terms []string) *Result {
	var matches []Match
	var total float64

	if s := scoreField(fav.Title, terms, 4.0); s > 0 {
		matches = append(matches, Match{Field: "title", Text: fav.Title, Weight: s})
		total += s
	}
	if s := scoreField(fav.Overview, terms, 1.5); s > 0 {
		matches = append(matches, Match{Field: "overview", Text: findBestSnippet(fav.Overview, terms, 150), Weight: s})
		total += s
	}
	if len(fav.ReleaseDate) >= 4 {
		if s := scoreField(fav.ReleaseDate[:4], terms, 1.0); s > 0 {
			matches = append(matches, Match{Field: "year", Text: fav.ReleaseDate[:4], Weight: s})
			total += s
		}
	}

	if total == 0 {
		return nil
	}
	return &Result{Favorite: fav, Score: total, Matches: matches}
}

// scoreField rewards substring, whole-word and prefix matches, with a bonus
// when several query terms hit the same field.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term):
				score += 1.0
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}

	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet returns the window of text with the most term hits
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	windowSize := maxLength / 8
	if windowSize <= 0 || windowSize >= len(words) {
		return truncate(text, maxLength)
	}

	best, bestStart := 0, 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		hits := 0
		for _, term := range terms {
			if strings.Contains(window, term) {
				hits++
			}
		}
		if hits > best {
			best, bestStart = hits, i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}

func warnf(format string, args ...any) {
	debuglog.Warnf(format, args...)
}
