package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabstash/tabstash-server/internal/scraper"
	"github.com/tabstash/tabstash-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "bandSearch",
		Method:      http.MethodGet,
		Path:        "/api/bandSearch/{bandName}",
		Summary:     "Search by band",
		Description: "Searches the upstream tab source for a band name.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBandSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "songSearch",
		Method:      http.MethodGet,
		Path:        "/api/songSearch/{songName}",
		Summary:     "Search by song",
		Description: "Searches the upstream tab source for a song title.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSongSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "cachedSearch",
		Method:      http.MethodGet,
		Path:        "/api/cachedSearch",
		Summary:     "Search cached tabs",
		Description: "Full-text search over locally cached tabs (artist, title, content).",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCachedSearch)
}

// === DTOs ===

// BandSearchInput contains the band search path parameter.
type BandSearchInput struct {
	BandName string `path:"bandName" validate:"required,min=1,max=200" doc:"Band name to search for"`
}

// SongSearchInput contains the song search path parameter.
type SongSearchInput struct {
	SongName string `path:"songName" validate:"required,min=1,max=200" doc:"Song title to search for"`
}

// SearchResultItem is one upstream search result.
type SearchResultItem struct {
	Type        string  `json:"type" doc:"Source type: tab or chords"`
	URL         string  `json:"url" doc:"Tab page URL"`
	Artist      string  `json:"artist" doc:"Artist name"`
	Title       string  `json:"title" doc:"Song title"`
	Rating      float64 `json:"rating" doc:"Source rating"`
	RatingCount int     `json:"rating_count" doc:"Number of source ratings"`
}

// SearchResultsResponse contains upstream search results.
type SearchResultsResponse struct {
	Query   string             `json:"query" doc:"Original search query"`
	Results []SearchResultItem `json:"results" doc:"Matching tabs, tab type first"`
}

// SearchResultsOutput wraps the search response for Huma.
type SearchResultsOutput struct {
	Body SearchResultsResponse
}

// CachedSearchInput contains parameters for searching cached tabs.
type CachedSearchInput struct {
	Query  string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Type   string `query:"type" validate:"omitempty,oneof=tab chords" doc:"Restrict to one source type"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
}

// CachedSearchHit is one local search result.
type CachedSearchHit struct {
	ID          string            `json:"tab_id" doc:"Cached tab ID"`
	Score       float64           `json:"score" doc:"Relevance score"`
	Type        string            `json:"type" doc:"Source type"`
	URL         string            `json:"url" doc:"Tab page URL"`
	Artist      string            `json:"artist" doc:"Artist name"`
	Title       string            `json:"title" doc:"Song title"`
	Difficulty  string            `json:"difficulty,omitempty" doc:"Difficulty label"`
	Rating      float64           `json:"rating" doc:"Source rating"`
	RatingCount int               `json:"rating_count" doc:"Number of source ratings"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// CachedSearchResponse contains local search results.
type CachedSearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  uint64            `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []CachedSearchHit `json:"hits" doc:"Search results"`
}

// CachedSearchOutput wraps the cached search response for Huma.
type CachedSearchOutput struct {
	Body CachedSearchResponse
}

// === Handlers ===

func (s *Server) handleBandSearch(ctx context.Context, input *BandSearchInput) (*SearchResultsOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	results, err := s.services.Search.SearchBand(ctx, input.BandName)
	if err != nil {
		return nil, err
	}

	return &SearchResultsOutput{Body: mapSearchResults(input.BandName, results)}, nil
}

func (s *Server) handleSongSearch(ctx context.Context, input *SongSearchInput) (*SearchResultsOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	results, err := s.services.Search.SearchSong(ctx, input.SongName)
	if err != nil {
		return nil, err
	}

	return &SearchResultsOutput{Body: mapSearchResults(input.SongName, results)}, nil
}

func (s *Server) handleCachedSearch(ctx context.Context, input *CachedSearchInput) (*CachedSearchOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	params := search.DefaultParams()
	params.Query = input.Query
	params.Type = input.Type
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	result, err := s.services.Search.SearchCached(ctx, params)
	if err != nil {
		return nil, err
	}

	hits := make([]CachedSearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, CachedSearchHit{
			ID:          hit.ID,
			Score:       hit.Score,
			Type:        hit.Type,
			URL:         hit.URL,
			Artist:      hit.Artist,
			Title:       hit.Title,
			Difficulty:  hit.Difficulty,
			Rating:      hit.Rating,
			RatingCount: hit.RatingCount,
			Highlights:  hit.Highlights,
		})
	}

	return &CachedSearchOutput{
		Body: CachedSearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}

// === Helpers ===

func mapSearchResults(query string, results []scraper.SearchResult) SearchResultsResponse {
	items := make([]SearchResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, SearchResultItem{
			Type:        string(r.Type),
			URL:         r.URL,
			Artist:      r.Artist,
			Title:       r.Title,
			Rating:      r.Rating,
			RatingCount: r.RatingCount,
		})
	}
	return SearchResultsResponse{Query: query, Results: items}
}
