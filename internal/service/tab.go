package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/tabstash/tabstash-server/internal/domain"
	domainerrors "github.com/tabstash/tabstash-server/internal/errors"
	"github.com/tabstash/tabstash-server/internal/id"
	"github.com/tabstash/tabstash-server/internal/scraper"
	"github.com/tabstash/tabstash-server/internal/store"
)

// TabFetcher fetches a single tab page from the upstream source.
type TabFetcher interface {
	Get(ctx context.Context, tabURL string) (*scraper.TabData, error)
}

// TabIndexer receives cached tabs for local search. Implemented by the
// Bleve index; indexing failures never fail the request.
type TabIndexer interface {
	IndexTab(tab *domain.Tab) error
}

// TabService serves tab content through a read-through cache: stored
// rows are returned as-is, misses are scraped once and persisted.
type TabService struct {
	store   store.Store
	fetcher TabFetcher
	indexer TabIndexer
	group   singleflight.Group
	logger  *slog.Logger
}

// NewTabService creates a new tab content service. indexer may be nil.
func NewTabService(store store.Store, fetcher TabFetcher, indexer TabIndexer, logger *slog.Logger) *TabService {
	return &TabService{
		store:   store,
		fetcher: fetcher,
		indexer: indexer,
		logger:  logger,
	}
}

// GetTabContent returns the tab stored for a URL, scraping and caching
// it on first request. Concurrent misses for the same URL share a
// single scrape.
func (s *TabService) GetTabContent(ctx context.Context, tabURL, difficulty string) (*domain.Tab, error) {
	tabURL = strings.TrimSpace(tabURL)
	if tabURL == "" {
		return nil, domainerrors.Validation("tabUrl is required")
	}

	tab, err := s.store.GetTabByURL(ctx, tabURL)
	if err == nil {
		return tab, nil
	}
	if !errors.Is(err, store.ErrTabNotFound) {
		return nil, fmt.Errorf("lookup tab: %w", err)
	}

	// The fetch outlives the leader's request so followers sharing the
	// flight aren't failed by the leader's cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(tabURL, func() (any, error) {
		return s.fetchAndStore(fetchCtx, tabURL, difficulty)
	})
	if err != nil {
		return nil, err
	}
	if shared && s.logger != nil {
		s.logger.Debug("Shared in-flight tab fetch", "url", tabURL)
	}

	return v.(*domain.Tab), nil
}

// GetTab returns a cached tab by ID.
func (s *TabService) GetTab(ctx context.Context, tabID string) (*domain.Tab, error) {
	tab, err := s.store.GetTab(ctx, tabID)
	if err != nil {
		if errors.Is(err, store.ErrTabNotFound) {
			return nil, domainerrors.NotFound("tab not found")
		}
		return nil, fmt.Errorf("get tab: %w", err)
	}
	return tab, nil
}

// fetchAndStore scrapes a tab page and persists it. Another flight may
// have inserted the row between the caller's miss and this call, so
// both the pre-check and the insert tolerate an existing row.
func (s *TabService) fetchAndStore(ctx context.Context, tabURL, difficulty string) (*domain.Tab, error) {
	if tab, err := s.store.GetTabByURL(ctx, tabURL); err == nil {
		return tab, nil
	}

	data, err := s.fetcher.Get(ctx, tabURL)
	if err != nil {
		return nil, mapScraperError(err)
	}

	tabID, err := id.Generate("tab")
	if err != nil {
		return nil, fmt.Errorf("generate tab ID: %w", err)
	}

	if data.Difficulty == "" {
		data.Difficulty = difficulty
	}

	tab := &domain.Tab{
		Entity:      domain.Entity{ID: tabID},
		SourceType:  data.Type,
		URL:         tabURL,
		Artist:      data.Artist,
		Title:       data.Title,
		Difficulty:  data.Difficulty,
		Rating:      data.Rating,
		RatingCount: data.RatingCount,
		Content:     data.Content,
	}
	tab.InitTimestamps()

	if err := s.store.CreateTab(ctx, tab); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the insert race, the stored row wins.
			return s.store.GetTabByURL(ctx, tabURL)
		}
		return nil, fmt.Errorf("save tab: %w", err)
	}

	if s.indexer != nil {
		if err := s.indexer.IndexTab(tab); err != nil && s.logger != nil {
			s.logger.Warn("Failed to index tab", "tab_id", tab.ID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("Cached tab from upstream",
			"tab_id", tab.ID,
			"artist", tab.Artist,
			"title", tab.Title,
		)
	}

	return tab, nil
}

// mapScraperError converts scraper failures to domain errors with the
// right HTTP semantics.
func mapScraperError(err error) error {
	switch {
	case errors.Is(err, scraper.ErrNotFound):
		return domainerrors.NotFound("tab not found at source").WithCause(err)
	case errors.Is(err, scraper.ErrRateLimited):
		return domainerrors.Upstream("tab source is rate limiting requests").WithCause(err)
	case errors.Is(err, scraper.ErrMalformed):
		return domainerrors.Upstream("tab source returned an unreadable page").WithCause(err)
	case errors.Is(err, scraper.ErrUnavailable):
		return domainerrors.Upstream("tab source is unavailable").WithCause(err)
	default:
		return fmt.Errorf("fetch tab: %w", err)
	}
}
