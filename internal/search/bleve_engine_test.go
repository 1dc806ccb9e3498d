package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pders01/reel/internal/storage"
)

func TestBleveEngineIndexesAndSearches(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, fav := range sampleFavorites() {
		require.NoError(t, store.SaveFavorite(fav))
	}

	idxPath := filepath.Join(dir, "favorites.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.(Closer).Close() })

	res, err := eng.Search("batman", 10)
	require.NoError(t, err)
	require.Len(t, res, 2)

	res, err = eng.Search("linguist", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "Arrival", res[0].Favorite.Title)

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestBleveEngineFollowsFavoriteChanges(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	eng, err := NewBleveEngine(store, filepath.Join(dir, "idx.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.(Closer).Close() })

	listener := eng.(UpdateListener)
	fav := &storage.Favorite{MovieID: 603, Title: "The Matrix", Overview: "A hacker learns the truth."}
	require.NoError(t, store.SaveFavorite(fav))
	listener.OnFavoriteSaved(fav)

	res, err := eng.Search("matrix", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)

	n, err := eng.(DebugStatser).DocCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, store.RemoveFavorite(603))
	listener.OnFavoriteRemoved(603)

	res, err = eng.Search("matrix", 10)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestBleveEngineReopenDropsStaleDocs(t *testing.T) {
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "idx.bleve")
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, fav := range sampleFavorites() {
		require.NoError(t, store.SaveFavorite(fav))
	}
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	require.NoError(t, eng.(Closer).Close())

	require.NoError(t, store.RemoveFavorite(3))

	eng, err = NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.(Closer).Close() })

	n, err := eng.(DebugStatser).DocCount()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
