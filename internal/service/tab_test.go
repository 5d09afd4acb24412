package service

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabstash/tabstash-server/internal/domain"
	domainerrors "github.com/tabstash/tabstash-server/internal/errors"
	"github.com/tabstash/tabstash-server/internal/scraper"
	"github.com/tabstash/tabstash-server/internal/store"
	"github.com/tabstash/tabstash-server/internal/store/sqlite"
)

// fakeFetcher serves canned tab data and counts upstream calls.
type fakeFetcher struct {
	calls     atomic.Int64
	data      map[string]*scraper.TabData
	err       error
	started   chan struct{} // Closed on the first Get when set
	startOnce sync.Once
	release   chan struct{} // When set, Get blocks until closed
}

func (f *fakeFetcher) Get(ctx context.Context, tabURL string) (*scraper.TabData, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[tabURL]
	if !ok {
		return nil, scraper.ErrNotFound
	}
	cp := *data
	return &cp, nil
}

// fakeIndexer records indexed tabs.
type fakeIndexer struct {
	mu   sync.Mutex
	tabs []*domain.Tab
}

func (f *fakeIndexer) IndexTab(tab *domain.Tab) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tabs = append(f.tabs, tab)
	return nil
}

func (f *fakeIndexer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tabs)
}

const testTabURL = "https://tabs.example.com/tab/nirvana/come-as-you-are-123"

func testTabData() *scraper.TabData {
	return &scraper.TabData{
		Type:        domain.SourceTypeTab,
		URL:         testTabURL,
		Artist:      "Nirvana",
		Title:       "Come As You Are",
		Rating:      4.7,
		RatingCount: 1200,
		Content:     "e|--0--0--|\nB|--------|",
	}
}

func setupTabTest(t *testing.T, fetcher *fakeFetcher) (*TabService, store.Store, *fakeIndexer) {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	indexer := &fakeIndexer{}
	return NewTabService(s, fetcher, indexer, nil), s, indexer
}

func TestTabService_GetTabContent_MissScrapesAndStores(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*scraper.TabData{testTabURL: testTabData()}}
	svc, s, indexer := setupTabTest(t, fetcher)
	ctx := context.Background()

	tab, err := svc.GetTabContent(ctx, testTabURL, "")
	require.NoError(t, err)
	assert.Equal(t, "Nirvana", tab.Artist)
	assert.Equal(t, "Come As You Are", tab.Title)
	assert.Equal(t, domain.SourceTypeTab, tab.SourceType)
	assert.NotEmpty(t, tab.Content)
	assert.EqualValues(t, 1, fetcher.calls.Load())
	assert.Equal(t, 1, indexer.count())

	stored, err := s.GetTabByURL(ctx, testTabURL)
	require.NoError(t, err)
	assert.Equal(t, tab.ID, stored.ID)
}

func TestTabService_GetTabContent_HitSkipsScraper(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*scraper.TabData{testTabURL: testTabData()}}
	svc, _, _ := setupTabTest(t, fetcher)
	ctx := context.Background()

	first, err := svc.GetTabContent(ctx, testTabURL, "")
	require.NoError(t, err)

	second, err := svc.GetTabContent(ctx, testTabURL, "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 1, fetcher.calls.Load(), "second call must not re-invoke the scraper")
}

func TestTabService_GetTabContent_ConcurrentMissesShareOneFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		data:    map[string]*scraper.TabData{testTabURL: testTabData()},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, _, _ := setupTabTest(t, fetcher)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*domain.Tab, workers)
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.GetTabContent(context.Background(), testTabURL, "")
		}()
	}

	// Let the goroutines pile up on the in-flight fetch before it returns.
	<-fetcher.started
	close(fetcher.release)
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}
	assert.EqualValues(t, 1, fetcher.calls.Load(), "concurrent misses must share a single scrape")
}

func TestTabService_GetTabContent_DifficultyFallback(t *testing.T) {
	data := testTabData()
	data.Difficulty = ""
	fetcher := &fakeFetcher{data: map[string]*scraper.TabData{testTabURL: data}}
	svc, _, _ := setupTabTest(t, fetcher)

	tab, err := svc.GetTabContent(context.Background(), testTabURL, "intermediate")
	require.NoError(t, err)
	assert.Equal(t, "intermediate", tab.Difficulty)
}

func TestTabService_GetTabContent_EmptyURL(t *testing.T) {
	svc, _, _ := setupTabTest(t, &fakeFetcher{})

	_, err := svc.GetTabContent(context.Background(), "   ", "")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestTabService_GetTabContent_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode domainerrors.Code
	}{
		{"unavailable", scraper.ErrUnavailable, domainerrors.CodeUpstream},
		{"malformed", scraper.ErrMalformed, domainerrors.CodeUpstream},
		{"rate limited", scraper.ErrRateLimited, domainerrors.CodeUpstream},
		{"not found", scraper.ErrNotFound, domainerrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupTabTest(t, &fakeFetcher{err: tt.err})

			_, err := svc.GetTabContent(context.Background(), testTabURL, "")
			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.wantCode, domainErr.Code)
		})
	}
}

func TestTabService_GetTab(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*scraper.TabData{testTabURL: testTabData()}}
	svc, _, _ := setupTabTest(t, fetcher)
	ctx := context.Background()

	cached, err := svc.GetTabContent(ctx, testTabURL, "")
	require.NoError(t, err)

	tab, err := svc.GetTab(ctx, cached.ID)
	require.NoError(t, err)
	assert.Equal(t, cached.URL, tab.URL)

	_, err = svc.GetTab(ctx, "tab_missing")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}
