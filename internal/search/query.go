package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search over the cached tabs.
type Params struct {
	Query string // User's search query
	Type  string // "tab" or "chords" filter (empty = both)

	// Pagination
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		Offset: 0,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single matched tab.
type Hit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	Type        string            `json:"type"`
	URL         string            `json:"url"`
	Artist      string            `json:"artist"`
	Title       string            `json:"title"`
	Difficulty  string            `json:"difficulty,omitempty"`
	Rating      float64           `json:"rating"`
	RatingCount int               `json:"rating_count"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query against the local index.
func (s *TabIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("artist")
	searchRequest.Highlight.AddField("title")

	searchRequest.Fields = []string{
		"id", "type", "url", "artist", "title", "difficulty", "rating", "rating_count",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["type"].(string); ok {
			h.Type = t
		}
		if u, ok := hit.Fields["url"].(string); ok {
			h.URL = u
		}
		if a, ok := hit.Fields["artist"].(string); ok {
			h.Artist = a
		}
		if ti, ok := hit.Fields["title"].(string); ok {
			h.Title = ti
		}
		if d, ok := hit.Fields["difficulty"].(string); ok {
			h.Difficulty = d
		}
		if r, ok := hit.Fields["rating"].(float64); ok {
			h.Rating = r
		}
		if rc, ok := hit.Fields["rating_count"].(float64); ok {
			h.RatingCount = int(rc)
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match with highest boost.
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		// Artist match.
		artistMatch := bleve.NewMatchQuery(params.Query)
		artistMatch.SetField("artist")
		artistMatch.SetBoost(2.0)
		textQueries = append(textQueries, artistMatch)

		// Tab text match, weakest signal.
		contentMatch := bleve.NewMatchQuery(params.Query)
		contentMatch.SetField("content")
		contentMatch.SetBoost(0.5)
		textQueries = append(textQueries, contentMatch)

		// Fuzzy matching for typo tolerance on title.
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars).
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Type filter.
	if params.Type != "" {
		tq := bleve.NewTermQuery(params.Type)
		tq.SetField("type")
		queries = append(queries, tq)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
