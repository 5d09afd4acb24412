package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabstash/tabstash-server/internal/domain"
)

func (s *Server) registerTabRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTabContent",
		Method:      http.MethodGet,
		Path:        "/api/tabContent",
		Summary:     "Get tab content",
		Description: "Returns the tab stored for a URL, scraping and caching it on first request.",
		Tags:        []string{"Tabs"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTabContent)
}

// === DTOs ===

// TabContentInput contains the tab lookup parameters.
type TabContentInput struct {
	TabURL        string `query:"tabUrl" validate:"required,url,max=2048" doc:"Source URL of the tab"`
	TabDifficulty string `query:"tabDifficulty" validate:"omitempty,max=50" doc:"Difficulty label to record when the source page provides none"`
}

// TabResponse contains a cached tab in API responses.
type TabResponse struct {
	ID          string    `json:"tab_id" doc:"Tab ID"`
	Type        string    `json:"type" doc:"Source type: tab or chords"`
	URL         string    `json:"url" doc:"Source URL"`
	Artist      string    `json:"artist" doc:"Artist name"`
	Title       string    `json:"title" doc:"Song title"`
	Difficulty  string    `json:"difficulty,omitempty" doc:"Difficulty label"`
	Rating      float64   `json:"rating" doc:"Source rating"`
	RatingCount int       `json:"rating_count" doc:"Number of source ratings"`
	Content     string    `json:"content,omitempty" doc:"Tab text content"`
	CreatedAt   time.Time `json:"created_at" doc:"When the tab was first cached"`
}

// TabOutput wraps the tab response for Huma.
type TabOutput struct {
	Body TabResponse
}

// === Handlers ===

func (s *Server) handleGetTabContent(ctx context.Context, input *TabContentInput) (*TabOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	tab, err := s.services.Tab.GetTabContent(ctx, input.TabURL, input.TabDifficulty)
	if err != nil {
		return nil, err
	}

	return &TabOutput{Body: mapTabResponse(tab, true)}, nil
}

// === Helpers ===

// mapTabResponse converts a domain tab. Content is omitted for list
// endpoints where only metadata is wanted.
func mapTabResponse(tab *domain.Tab, includeContent bool) TabResponse {
	resp := TabResponse{
		ID:          tab.ID,
		Type:        string(tab.SourceType),
		URL:         tab.URL,
		Artist:      tab.Artist,
		Title:       tab.Title,
		Difficulty:  tab.Difficulty,
		Rating:      tab.Rating,
		RatingCount: tab.RatingCount,
		CreatedAt:   tab.CreatedAt,
	}
	if includeContent {
		resp.Content = tab.Content
	}
	return resp
}
