package api

import (
	"encoding/json/v2"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabstash/tabstash-server/internal/scraper"
)

func tabContentPath(tabURL, difficulty string) string {
	q := url.Values{"tabUrl": {tabURL}}
	if difficulty != "" {
		q.Set("tabDifficulty", difficulty)
	}
	return "/api/tabContent?" + q.Encode()
}

func TestGetTabContent_ScrapesOnFirstRequest(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "tabreader")

	resp := ts.doJSON(t, http.MethodGet, tabContentPath(testTabURL, ""), login.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[TabResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, "Nirvana", envelope.Data.Artist)
	assert.Equal(t, "Come As You Are", envelope.Data.Title)
	assert.Equal(t, "tab", envelope.Data.Type)
	assert.NotEmpty(t, envelope.Data.Content)
	assert.NotEmpty(t, envelope.Data.ID)
	assert.EqualValues(t, 1, ts.fetcher.calls.Load())
}

func TestGetTabContent_SecondRequestServedFromCache(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "tabreader")

	first := ts.doJSON(t, http.MethodGet, tabContentPath(testTabURL, ""), login.AccessToken, nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := ts.doJSON(t, http.MethodGet, tabContentPath(testTabURL, ""), login.AccessToken, nil)
	require.Equal(t, http.StatusOK, second.Code)

	assert.EqualValues(t, 1, ts.fetcher.calls.Load(), "cached tab must not re-invoke the scraper")
}

func TestGetTabContent_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.doJSON(t, http.MethodGet, tabContentPath(testTabURL, ""), "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetTabContent_MissingURL(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "tabreader")

	resp := ts.doJSON(t, http.MethodGet, "/api/tabContent", login.AccessToken, nil)
	assert.True(t, resp.Code == http.StatusBadRequest || resp.Code == http.StatusUnprocessableEntity)
}

func TestGetTabContent_UpstreamDown(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "tabreader")
	ts.fetcher.err = scraper.ErrUnavailable

	resp := ts.doJSON(t, http.MethodGet, tabContentPath(testTabURL, ""), login.AccessToken, nil)
	assert.Equal(t, http.StatusBadGateway, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", envelope.Error.Code)
}

func TestGetTabContent_UnknownTab(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "tabreader")

	resp := ts.doJSON(t, http.MethodGet, tabContentPath("https://tabs.example.com/tab/unknown-1", ""), login.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
