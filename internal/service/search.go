package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainerrors "github.com/tabstash/tabstash-server/internal/errors"
	"github.com/tabstash/tabstash-server/internal/scraper"
	"github.com/tabstash/tabstash-server/internal/search"
)

// UpstreamSearcher queries the upstream tab source.
type UpstreamSearcher interface {
	SearchByBand(ctx context.Context, band string) ([]scraper.SearchResult, error)
	SearchBySong(ctx context.Context, song string) ([]scraper.SearchResult, error)
}

// SearchResultCache holds upstream search results for a TTL so repeated
// queries don't hit the source again.
type SearchResultCache interface {
	Get(kind, query string) ([]scraper.SearchResult, bool)
	Put(kind, query string, results []scraper.SearchResult)
}

// LocalSearcher queries the index over locally cached tabs.
type LocalSearcher interface {
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// SearchService proxies band and song searches to the upstream source
// and serves full-text search over the local tab cache.
type SearchService struct {
	searcher UpstreamSearcher
	cache    SearchResultCache
	local    LocalSearcher
	logger   *slog.Logger
}

// NewSearchService creates a new search service. cache and local may be nil.
func NewSearchService(searcher UpstreamSearcher, cache SearchResultCache, local LocalSearcher, logger *slog.Logger) *SearchService {
	return &SearchService{
		searcher: searcher,
		cache:    cache,
		local:    local,
		logger:   logger,
	}
}

// SearchBand returns upstream results for a band name.
func (s *SearchService) SearchBand(ctx context.Context, band string) ([]scraper.SearchResult, error) {
	return s.searchUpstream(ctx, "band", band, s.searcher.SearchByBand)
}

// SearchSong returns upstream results for a song title.
func (s *SearchService) SearchSong(ctx context.Context, song string) ([]scraper.SearchResult, error) {
	return s.searchUpstream(ctx, "song", song, s.searcher.SearchBySong)
}

func (s *SearchService) searchUpstream(
	ctx context.Context,
	kind, query string,
	fn func(context.Context, string) ([]scraper.SearchResult, error),
) ([]scraper.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.Validation("search query is required")
	}

	if s.cache != nil {
		if results, ok := s.cache.Get(kind, query); ok {
			if s.logger != nil {
				s.logger.Debug("Search cache hit", "kind", kind, "query", query)
			}
			return results, nil
		}
	}

	results, err := fn(ctx, query)
	if err != nil {
		return nil, mapScraperError(err)
	}
	if results == nil {
		results = []scraper.SearchResult{}
	}

	if s.cache != nil {
		s.cache.Put(kind, query, results)
	}

	return results, nil
}

// SearchCached queries the local full-text index over cached tabs.
func (s *SearchService) SearchCached(ctx context.Context, params search.Params) (*search.Result, error) {
	if s.local == nil {
		return nil, domainerrors.Internal("local search is not configured")
	}

	result, err := s.local.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search cached tabs: %w", err)
	}
	return result, nil
}
