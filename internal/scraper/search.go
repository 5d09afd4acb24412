package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Upstream type filter codes. The search endpoint takes one code per
// request, so each search fans out to one request per wanted type.
const (
	typeCodeTab    = "200"
	typeCodeChords = "300"
)

// SearchByBand searches for tabs and chord charts by artist name.
func (c *Client) SearchByBand(ctx context.Context, band string) ([]SearchResult, error) {
	results, err := c.search(ctx, "band", band)
	if err != nil {
		return nil, wrapError("search", "", err)
	}
	return results, nil
}

// SearchBySong searches for tabs and chord charts by song title.
func (c *Client) SearchBySong(ctx context.Context, song string) ([]SearchResult, error) {
	results, err := c.search(ctx, "title", song)
	if err != nil {
		return nil, wrapError("search", "", err)
	}
	return results, nil
}

// search queries the upstream for both tablature and chord results and
// merges them, tabs first.
func (c *Client) search(ctx context.Context, searchType, value string) ([]SearchResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty query", ErrMalformed)
	}

	var merged []SearchResult
	for _, typeCode := range []string{typeCodeTab, typeCodeChords} {
		page, err := c.searchPage(ctx, searchType, value, typeCode)
		if err != nil {
			return nil, err
		}
		merged = append(merged, page...)
	}
	return merged, nil
}

func (c *Client) searchPage(ctx context.Context, searchType, value, typeCode string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("search_type", searchType)
	q.Set("value", value)
	q.Set("type", typeCode)
	searchURL := c.searchURL + "/search.php?" + q.Encode()

	body, err := c.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	store, err := extractStore(body)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(store.Store.Page.Data.Results))
	for _, entry := range store.Store.Page.Data.Results {
		// Entries without a URL are ads or collapsed rows.
		if entry.TabURL == "" {
			continue
		}
		results = append(results, SearchResult{
			Type:        sourceType(entry.Type),
			URL:         entry.TabURL,
			Artist:      entry.ArtistName,
			Title:       entry.SongName,
			Rating:      entry.Rating,
			RatingCount: entry.Votes,
		})
	}
	return results, nil
}
