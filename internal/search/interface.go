package search

import "github.com/pders01/reel/internal/storage"

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Source supplies the favorites to search. *storage.Store implements it.
type Source interface {
	GetFavorites() ([]*storage.Favorite, error)
}

// UpdateListener can be implemented by search engines that maintain
// an external index and want to be notified about favorite changes.
type UpdateListener interface {
	OnFavoriteSaved(fav *storage.Favorite)
	OnFavoriteRemoved(movieID int64)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// Closer is implemented by engines holding open files.
type Closer interface {
	Close() error
}

// Result is a favorite that matched a query
type Result struct {
	Favorite *storage.Favorite
	Score    float64
	Matches  []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "overview", "year"
	Text   string
	Weight float64
}

// New returns a bleve-backed searcher when indexPath is set and the index
// opens, and the index-free Engine otherwise.
func New(source Source, indexPath string) Searcher {
	if indexPath != "" {
		eng, err := NewBleveEngine(source, indexPath)
		if err == nil {
			return eng
		}
		warnf("bleve index unavailable, using in-memory search: %v", err)
	}
	return NewEngine(source)
}
