// Package scraper fetches tab listings and tab content from the upstream
// tab site. Pages embed their data as JSON inside a store element; the
// scraper parses the HTML, extracts that payload, and maps it onto domain
// types.
package scraper

import "github.com/tabstash/tabstash-server/internal/domain"

// SearchResult is one entry from an upstream search.
type SearchResult struct {
	Type        domain.SourceType `json:"type"`
	URL         string            `json:"url"`
	Artist      string            `json:"artist"`
	Title       string            `json:"title"`
	Rating      float64           `json:"rating"`
	RatingCount int               `json:"rating_count"`
}

// TabData is the full payload scraped from a single tab page.
type TabData struct {
	Type        domain.SourceType `json:"type"`
	URL         string            `json:"url"`
	Artist      string            `json:"artist"`
	Title       string            `json:"title"`
	Difficulty  string            `json:"difficulty"`
	Rating      float64           `json:"rating"`
	RatingCount int               `json:"rating_count"`
	Content     string            `json:"content"`
}
