package scraper

import (
	"context"
	"fmt"
	"strings"
)

// Get fetches a single tab page and returns its full scraped record.
func (c *Client) Get(ctx context.Context, tabURL string) (*TabData, error) {
	tabURL = strings.TrimSpace(tabURL)
	if tabURL == "" {
		return nil, wrapError("get", tabURL, fmt.Errorf("%w: empty url", ErrMalformed))
	}

	body, err := c.fetch(ctx, tabURL)
	if err != nil {
		return nil, wrapError("get", tabURL, err)
	}

	store, err := extractStore(body)
	if err != nil {
		return nil, wrapError("get", tabURL, err)
	}

	data := store.Store.Page.Data
	if data.Tab == nil {
		return nil, wrapError("get", tabURL, fmt.Errorf("%w: tab payload missing", ErrMalformed))
	}

	tab := &TabData{
		Type:        sourceType(data.Tab.Type),
		URL:         data.Tab.TabURL,
		Artist:      data.Tab.ArtistName,
		Title:       data.Tab.SongName,
		Difficulty:  data.Tab.Difficulty,
		Rating:      data.Tab.Rating,
		RatingCount: data.Tab.Votes,
	}
	if tab.URL == "" {
		tab.URL = tabURL
	}
	if data.TabView != nil {
		tab.Content = cleanContent(data.TabView.WikiTab.Content)
	}
	if tab.Content == "" {
		return nil, wrapError("get", tabURL, fmt.Errorf("%w: content missing", ErrMalformed))
	}

	return tab, nil
}
