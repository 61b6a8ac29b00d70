package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemIndex(t *testing.T, docs ...Document) *BleveIndex {
	t.Helper()
	idx, err := OpenBleve("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	if len(docs) > 0 {
		require.NoError(t, idx.Reindex(context.Background(), docs))
	}
	return idx
}

var talks = []Document{
	{ID: "1", Title: "Testing with pytest", Summary: "fixtures and plugins", URL: "/video/1/testing/", Category: "PyCon 2013", Speakers: []string{"Alice Smith"}, Tags: []string{"testing"}},
	{ID: "2", Title: "Async IO in depth", Summary: "event loops", URL: "/video/2/async/", Category: "PyCon 2013", Speakers: []string{"Bob Jones"}},
	{ID: "3", Title: "Django ORM tricks", Summary: "querysets", URL: "/video/3/orm/", Category: "DjangoCon 2012", Speakers: []string{"Carol White", "Alice Smith"}},
	{ID: "4", Title: "Django deployment", Summary: "servers", URL: "/video/4/deploy/", Category: "DjangoCon 2012", Speakers: []string{"Dan Brown"}},
}

func TestSearchContent(t *testing.T) {
	idx := newMemIndex(t, talks...)

	res, err := idx.Search(context.Background(), Query{Content: "pytest", SpeakerPrefix: "pytest"}, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "1", res.Hits[0].ID)
	assert.Equal(t, "Testing with pytest", res.Hits[0].Title)
	assert.Equal(t, "/video/1/testing/", res.Hits[0].URL)
	assert.Equal(t, "PyCon 2013", res.Hits[0].Category)
	assert.Equal(t, []string{"Alice Smith"}, res.Hits[0].Speakers)
}

func TestSearchSpeakerPrefix(t *testing.T) {
	idx := newMemIndex(t, talks...)

	res, err := idx.Search(context.Background(), Query{Content: "Ali", SpeakerPrefix: "ali"}, 0, 25)
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	assert.ElementsMatch(t, []string{"1", "3"}, ids)
}

func TestSearchPagination(t *testing.T) {
	docs := make([]Document, 0, 30)
	for i := 0; i < 30; i++ {
		docs = append(docs, Document{ID: fmt.Sprint(i), Title: fmt.Sprintf("Python talk %d", i)})
	}
	idx := newMemIndex(t, docs...)

	res, err := idx.Search(context.Background(), Query{Content: "python"}, 25, 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), res.Total)
	assert.Len(t, res.Hits, 5)
}

func TestAutocomplete(t *testing.T) {
	idx := newMemIndex(t, talks...)
	ctx := context.Background()

	titles, err := idx.Autocomplete(ctx, "Dja", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Django ORM tricks", "Django deployment"}, titles)

	titles, err = idx.Autocomplete(ctx, "django dep", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Django deployment"}, titles)

	titles, err = idx.Autocomplete(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestAutocompleteApostrophe(t *testing.T) {
	idx := newMemIndex(t,
		Document{ID: "1", Title: "Don't stop the world", URL: "/video/1/dont-stop/"},
		Document{ID: "2", Title: "Donations at scale", URL: "/video/2/donations/"},
	)

	titles, err := idx.Autocomplete(context.Background(), "don't st", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Don't stop the world"}, titles)

	titles, err = idx.Autocomplete(context.Background(), "Don", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Don't stop the world", "Donations at scale"}, titles)
}

func TestReindexReplacesDocuments(t *testing.T) {
	idx := newMemIndex(t, talks...)

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	require.NoError(t, idx.Reindex(context.Background(), talks[:2]))
	n, err = idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	res, err := idx.Search(context.Background(), Query{Content: "django"}, 0, 25)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestClosedIndexIsUnavailable(t *testing.T) {
	idx, err := OpenBleve("", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = idx.Search(context.Background(), Query{Content: "x"}, 0, 25)
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = idx.Autocomplete(context.Background(), "x", 10)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bleve")

	idx, err := OpenBleve(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, idx.Reindex(context.Background(), talks))
	require.NoError(t, idx.Close())

	reopened, err := OpenBleve(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}
