package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/pders01/reel/internal/storage"
)

type bleveEngine struct {
	source Source
	idx    bleve.Index
}

var (
	_ Searcher       = (*bleveEngine)(nil)
	_ UpdateListener = (*bleveEngine)(nil)
	_ DebugStatser   = (*bleveEngine)(nil)
)

// NewBleveEngine creates or opens a Bleve index at indexPath and brings it
// in line with the current favorites.
func NewBleveEngine(source Source, indexPath string) (Searcher, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &bleveEngine{source: source, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("indexing favorites: %w", err)
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	overview := bleve.NewTextFieldMapping()
	overview.Analyzer = standard.Name
	overview.Store = false

	year := bleve.NewTextFieldMapping()
	year.Analyzer = standard.Name
	year.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("overview", overview)
	dm.AddFieldMappingsAt("year", year)

	im.DefaultMapping = dm
	return im
}

func docID(movieID int64) string {
	return "favorite:" + strconv.FormatInt(movieID, 10)
}

func movieIDFromDoc(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimPrefix(id, "favorite:"), 10, 64)
	return n, err == nil
}

func document(fav *storage.Favorite) map[string]any {
	year := ""
	if len(fav.ReleaseDate) >= 4 {
		year = fav.ReleaseDate[:4]
	}
	return map[string]any{
		"title":    fav.Title,
		"overview": fav.Overview,
		"year":     year,
	}
}

// reindexAll indexes every favorite and drops documents for movies that
// are no longer favorites.
func (b *bleveEngine) reindexAll() error {
	favorites, err := b.source.GetFavorites()
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(favorites))
	batch := b.idx.NewBatch()
	for _, fav := range favorites {
		id := docID(fav.MovieID)
		keep[id] = true
		if err := batch.Index(id, document(fav)); err != nil {
			return err
		}
	}

	total, err := b.DocCount()
	if err != nil {
		return err
	}
	if total > 0 {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), total, 0, false)
		res, err := b.idx.Search(req)
		if err != nil {
			return err
		}
		for _, h := range res.Hits {
			if !keep[h.ID] {
				batch.Delete(h.ID)
			}
		}
	}

	return b.idx.Batch(batch)
}

func (b *bleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		qs = append(qs,
			fieldMatch("title", tok, 4.0),
			fieldPrefix("title", tok, 3.5),
			fieldMatch("overview", tok, 1.5),
			fieldPrefix("overview", tok, 1.2),
			fieldMatch("year", tok, 1.0),
		)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	favorites, err := b.source.GetFavorites()
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*storage.Favorite, len(favorites))
	for _, f := range favorites {
		byID[f.MovieID] = f
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, ok := movieIDFromDoc(h.ID)
		if !ok {
			continue
		}
		fav, ok := byID[id]
		if !ok {
			// Removed from favorites after the hit was indexed.
			continue
		}
		r := &Result{Favorite: fav, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			r.Matches = append(r.Matches, Match{Field: "title", Text: t, Weight: h.Score})
		}
		out = append(out, r)
	}
	return out, nil
}

func fieldMatch(field, tok string, boost float64) bleveQuery.Query {
	q := bleve.NewMatchQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

func fieldPrefix(field, tok string, boost float64) bleveQuery.Query {
	q := bleve.NewPrefixQuery(strings.ToLower(tok))
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

// OnFavoriteSaved indexes a newly saved favorite.
func (b *bleveEngine) OnFavoriteSaved(fav *storage.Favorite) {
	if fav == nil {
		return
	}
	if err := b.idx.Index(docID(fav.MovieID), document(fav)); err != nil {
		warnf("indexing favorite %d: %v", fav.MovieID, err)
	}
}

func (b *bleveEngine) OnFavoriteRemoved(movieID int64) {
	if err := b.idx.Delete(docID(movieID)); err != nil {
		warnf("removing favorite %d from index: %v", movieID, err)
	}
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *bleveEngine) Close() error {
	return b.idx.Close()
}
