// Package search provides full-text search over the local tab cache using
// Bleve. It lets users find already-fetched tabs by artist, title, or the
// tab text itself without touching the upstream site.
package search

import (
	"github.com/tabstash/tabstash-server/internal/domain"
)

// TabDocument is the document structure for the Bleve index, one per
// cached tab.
type TabDocument struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"` // "tab" or "chords"
	URL         string  `json:"url"`
	Artist      string  `json:"artist"`
	Title       string  `json:"title"`
	Difficulty  string  `json:"difficulty,omitempty"`
	Content     string  `json:"content"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
	CreatedAt   int64   `json:"created_at"` // Unix millis
}

// DocumentFromTab builds a search document from a cached tab.
func DocumentFromTab(tab *domain.Tab) *TabDocument {
	return &TabDocument{
		ID:          tab.ID,
		Type:        string(tab.SourceType),
		URL:         tab.URL,
		Artist:      tab.Artist,
		Title:       tab.Title,
		Difficulty:  tab.Difficulty,
		Content:     tab.Content,
		Rating:      tab.Rating,
		RatingCount: tab.RatingCount,
		CreatedAt:   tab.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but the
// mapping uses lowercase names, so we convert explicitly.
func (d *TabDocument) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":           d.ID,
		"type":         d.Type,
		"url":          d.URL,
		"artist":       d.Artist,
		"title":        d.Title,
		"difficulty":   d.Difficulty,
		"content":      d.Content,
		"rating":       d.Rating,
		"rating_count": d.RatingCount,
		"created_at":   d.CreatedAt,
	}
}
