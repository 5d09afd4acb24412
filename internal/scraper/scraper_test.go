package scraper

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabstash/tabstash-server/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// storePage wraps a JSON payload in the upstream's page structure.
func storePage(payload string) string {
	return fmt.Sprintf(
		`<!DOCTYPE html><html><body><div class="js-store" data-content="%s"></div></body></html>`,
		html.EscapeString(payload),
	)
}

const searchPayload = `{"store":{"page":{"data":{"results":[
	{"artist_name":"Pink Floyd","song_name":"Time","type":"Tab","tab_url":"https://tabs.example.com/pink-floyd/time-1","rating":4.7,"votes":812},
	{"artist_name":"Pink Floyd","song_name":"Breathe","type":"Chords","tab_url":"https://tabs.example.com/pink-floyd/breathe-2","rating":4.2,"votes":300},
	{"artist_name":"Sponsored","song_name":"Ad","type":"Tab","tab_url":"","rating":0,"votes":0}
]}}}}`

const tabPayload = `{"store":{"page":{"data":{
	"tab":{"artist_name":"Pink Floyd","song_name":"Time","type":"Tab","tab_url":"https://tabs.example.com/pink-floyd/time-1","difficulty":"intermediate","rating":4.7,"votes":812},
	"tab_view":{"wiki_tab":{"content":"[tab]e|--3--|[/tab] [ch]Em[/ch]"}}
}}}}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:           srv.URL,
		SearchURL:         srv.URL,
		RequestsPerSecond: 100,
		Burst:             100,
		Timeout:           5 * time.Second,
	}, testLogger())
	return client, srv
}

func TestSearchBySong(t *testing.T) {
	var queries []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search.php", r.URL.Path)
		queries = append(queries, r.URL.Query().Get("type"))
		assert.Equal(t, "title", r.URL.Query().Get("search_type"))
		assert.Equal(t, "time", r.URL.Query().Get("value"))
		fmt.Fprint(w, storePage(searchPayload))
	}))

	results, err := client.SearchBySong(context.Background(), "time")
	require.NoError(t, err)

	// One request per type code, tabs then chords.
	assert.Equal(t, []string{typeCodeTab, typeCodeChords}, queries)

	// Two pages of two real entries each; the ad row is dropped.
	require.Len(t, results, 4)
	assert.Equal(t, "Time", results[0].Title)
	assert.Equal(t, domain.SourceTypeTab, results[0].Type)
	assert.Equal(t, domain.SourceTypeChords, results[1].Type)
	assert.Equal(t, 812, results[0].RatingCount)
}

func TestSearchByBand_UsesBandSearchType(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "band", r.URL.Query().Get("search_type"))
		fmt.Fprint(w, storePage(searchPayload))
	}))

	_, err := client.SearchByBand(context.Background(), "pink floyd")
	require.NoError(t, err)
}

func TestSearch_EmptyQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty query")
	}))

	_, err := client.SearchBySong(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSearch_UpstreamDown(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.SearchBySong(context.Background(), "time")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSearch_MissingStoreElement(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>captcha</body></html>")
	}))

	_, err := client.SearchBySong(context.Background(), "time")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGet(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, storePage(tabPayload))
	}))

	tab, err := client.Get(context.Background(), srv.URL+"/pink-floyd/time-1")
	require.NoError(t, err)

	assert.Equal(t, "Pink Floyd", tab.Artist)
	assert.Equal(t, "Time", tab.Title)
	assert.Equal(t, domain.SourceTypeTab, tab.Type)
	assert.Equal(t, "intermediate", tab.Difficulty)
	assert.Equal(t, 4.7, tab.Rating)
	// Markup markers stripped from content.
	assert.Equal(t, "e|--3--| Em", tab.Content)
}

func TestGet_NotFound(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Get(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_MissingContent(t *testing.T) {
	payload := `{"store":{"page":{"data":{"tab":{"artist_name":"X","song_name":"Y","type":"Tab","tab_url":"u"}}}}}`
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, storePage(payload))
	}))

	_, err := client.Get(context.Background(), srv.URL+"/x")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGet_ContextCanceled(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, storePage(tabPayload))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, srv.URL+"/slow")
	assert.Error(t, err)
}

func TestSourceType(t *testing.T) {
	assert.Equal(t, domain.SourceTypeChords, sourceType("Chords"))
	assert.Equal(t, domain.SourceTypeChords, sourceType("chords"))
	assert.Equal(t, domain.SourceTypeTab, sourceType("Tab"))
	assert.Equal(t, domain.SourceTypeTab, sourceType("Bass"))
}
