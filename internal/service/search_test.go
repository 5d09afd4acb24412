package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabstash/tabstash-server/internal/domain"
	domainerrors "github.com/tabstash/tabstash-server/internal/errors"
	"github.com/tabstash/tabstash-server/internal/scraper"
)

// fakeSearcher serves canned search results and counts upstream calls.
type fakeSearcher struct {
	calls   atomic.Int64
	results []scraper.SearchResult
	err     error
}

func (f *fakeSearcher) SearchByBand(ctx context.Context, band string) ([]scraper.SearchResult, error) {
	f.calls.Add(1)
	return f.results, f.err
}

func (f *fakeSearcher) SearchBySong(ctx context.Context, song string) ([]scraper.SearchResult, error) {
	f.calls.Add(1)
	return f.results, f.err
}

// mapCache is an in-memory SearchResultCache.
type mapCache struct {
	entries map[string][]scraper.SearchResult
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]scraper.SearchResult)}
}

func (c *mapCache) Get(kind, query string) ([]scraper.SearchResult, bool) {
	results, ok := c.entries[kind+":"+query]
	return results, ok
}

func (c *mapCache) Put(kind, query string, results []scraper.SearchResult) {
	c.entries[kind+":"+query] = results
}

func testSearchResults() []scraper.SearchResult {
	return []scraper.SearchResult{
		{Type: domain.SourceTypeTab, URL: "https://tabs.example.com/1", Artist: "Nirvana", Title: "Lithium"},
		{Type: domain.SourceTypeChords, URL: "https://tabs.example.com/2", Artist: "Nirvana", Title: "Lithium"},
	}
}

func TestSearchService_SearchBand(t *testing.T) {
	searcher := &fakeSearcher{results: testSearchResults()}
	svc := NewSearchService(searcher, nil, nil, nil)

	results, err := svc.SearchBand(context.Background(), "Nirvana")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.EqualValues(t, 1, searcher.calls.Load())
}

func TestSearchService_SearchSong_CachesResults(t *testing.T) {
	searcher := &fakeSearcher{results: testSearchResults()}
	svc := NewSearchService(searcher, newMapCache(), nil, nil)
	ctx := context.Background()

	first, err := svc.SearchSong(ctx, "Lithium")
	require.NoError(t, err)

	second, err := svc.SearchSong(ctx, "Lithium")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, searcher.calls.Load(), "repeat query must be served from cache")
}

func TestSearchService_BandAndSongCachesAreSeparate(t *testing.T) {
	searcher := &fakeSearcher{results: testSearchResults()}
	svc := NewSearchService(searcher, newMapCache(), nil, nil)
	ctx := context.Background()

	_, err := svc.SearchBand(ctx, "Nirvana")
	require.NoError(t, err)

	_, err = svc.SearchSong(ctx, "Nirvana")
	require.NoError(t, err)

	assert.EqualValues(t, 2, searcher.calls.Load())
}

func TestSearchService_EmptyQuery(t *testing.T) {
	svc := NewSearchService(&fakeSearcher{}, nil, nil, nil)

	_, err := svc.SearchBand(context.Background(), "  ")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestSearchService_UpstreamFailure(t *testing.T) {
	searcher := &fakeSearcher{err: scraper.ErrUnavailable}
	svc := NewSearchService(searcher, nil, nil, nil)

	_, err := svc.SearchSong(context.Background(), "Lithium")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeUpstream, domainErr.Code)
}

func TestSearchService_NoResultsIsEmptySlice(t *testing.T) {
	svc := NewSearchService(&fakeSearcher{}, nil, nil, nil)

	results, err := svc.SearchBand(context.Background(), "Unknown Band")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
