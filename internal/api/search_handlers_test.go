package api

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabstash/tabstash-server/internal/domain"
	"github.com/tabstash/tabstash-server/internal/scraper"
	"github.com/tabstash/tabstash-server/internal/search"
	"github.com/tabstash/tabstash-server/internal/service"
)

// installLocalSearch rebuilds the search service with a real index so the
// cachedSearch endpoint has something to query.
func installLocalSearch(t *testing.T, ts *testServer) *search.TabIndex {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	index, err := search.NewTabIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	ts.searchIndex = index
	ts.services.Search = service.NewSearchService(ts.searcher, nil, index, logger)
	return index
}

func TestBandSearch(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "searcher1")

	resp := ts.doJSON(t, http.MethodGet, "/api/bandSearch/Nirvana", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[SearchResultsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, "Nirvana", envelope.Data.Query)
	require.Len(t, envelope.Data.Results, 1)
	assert.Equal(t, "Come As You Are", envelope.Data.Results[0].Title)
	assert.Equal(t, string(domain.SourceTypeTab), envelope.Data.Results[0].Type)
	assert.Equal(t, int64(1), ts.searcher.bandCalls.Load())
}

func TestSongSearch(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "searcher2")

	resp := ts.doJSON(t, http.MethodGet, "/api/songSearch/Come%20As%20You%20Are", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[SearchResultsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, "Come As You Are", envelope.Data.Query)
	require.Len(t, envelope.Data.Results, 1)
	assert.Equal(t, "Nirvana", envelope.Data.Results[0].Artist)
	assert.Equal(t, int64(1), ts.searcher.songCalls.Load())
}

func TestSearch_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{
		"/api/bandSearch/Nirvana",
		"/api/songSearch/Lithium",
		"/api/cachedSearch?q=nirvana",
	} {
		resp := ts.doJSON(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

func TestCachedSearch_FindsIndexedTab(t *testing.T) {
	ts := setupTestServer(t)
	index := installLocalSearch(t, ts)
	login := ts.login(t, "searcher3")

	require.NoError(t, index.IndexTab(&domain.Tab{
		Entity:      domain.Entity{ID: "tab_local1"},
		SourceType:  domain.SourceTypeTab,
		URL:         testTabURL,
		Artist:      "Nirvana",
		Title:       "Come As You Are",
		Difficulty:  "novice",
		Rating:      4.7,
		RatingCount: 1200,
		Content:     "e|--0--0--|",
	}))

	resp := ts.doJSON(t, http.MethodGet, "/api/cachedSearch?q=nirvana", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[CachedSearchResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, "nirvana", envelope.Data.Query)
	require.Equal(t, uint64(1), envelope.Data.Total)
	require.Len(t, envelope.Data.Hits, 1)
	assert.Equal(t, "tab_local1", envelope.Data.Hits[0].ID)
	assert.Equal(t, "Come As You Are", envelope.Data.Hits[0].Title)
	assert.Greater(t, envelope.Data.Hits[0].Score, 0.0)
}

func TestCachedSearch_TypeFilter(t *testing.T) {
	ts := setupTestServer(t)
	index := installLocalSearch(t, ts)
	login := ts.login(t, "searcher4")

	require.NoError(t, index.IndexTabs([]*domain.Tab{
		{
			Entity:     domain.Entity{ID: "tab_t1"},
			SourceType: domain.SourceTypeTab,
			URL:        "https://tabs.example.com/tab/nirvana/lithium-1",
			Artist:     "Nirvana",
			Title:      "Lithium",
		},
		{
			Entity:     domain.Entity{ID: "tab_c1"},
			SourceType: domain.SourceTypeChords,
			URL:        "https://tabs.example.com/tab/nirvana/lithium-2",
			Artist:     "Nirvana",
			Title:      "Lithium",
		},
	}))

	resp := ts.doJSON(t, http.MethodGet, "/api/cachedSearch?q=lithium&type=chords", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[CachedSearchResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	require.Len(t, envelope.Data.Hits, 1)
	assert.Equal(t, "tab_c1", envelope.Data.Hits[0].ID)
	assert.Equal(t, string(domain.SourceTypeChords), envelope.Data.Hits[0].Type)
}

func TestCachedSearch_NoIndexConfigured(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "searcher5")

	resp := ts.doJSON(t, http.MethodGet, "/api/cachedSearch?q=nirvana", login.AccessToken, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestCachedSearch_MissingQuery(t *testing.T) {
	ts := setupTestServer(t)
	installLocalSearch(t, ts)
	login := ts.login(t, "searcher6")

	resp := ts.doJSON(t, http.MethodGet, "/api/cachedSearch", login.AccessToken, nil)
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusUnprocessableEntity}, resp.Code)
}

func TestSearch_UpstreamFailure(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "searcher7")
	ts.searcher.err = scraper.ErrUnavailable

	resp := ts.doJSON(t, http.MethodGet, "/api/bandSearch/Nirvana", login.AccessToken, nil)
	require.Equal(t, http.StatusBadGateway, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	require.NotNil(t, envelope.Error)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", envelope.Error.Code)
}
