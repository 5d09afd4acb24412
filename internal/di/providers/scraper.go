package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/tabstash/tabstash-server/internal/config"
	"github.com/tabstash/tabstash-server/internal/logger"
	"github.com/tabstash/tabstash-server/internal/scraper"
)

// ProvideScraperClient provides the rate-limited upstream tab site client.
func ProvideScraperClient(i do.Injector) (*scraper.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := scraper.NewClient(scraper.Config{
		BaseURL:           cfg.Scraper.BaseURL,
		SearchURL:         cfg.Scraper.SearchURL,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Burst:             cfg.Scraper.Burst,
		Timeout:           cfg.Scraper.Timeout,
	}, log.Logger)

	log.Info("Scraper client initialized",
		"base_url", cfg.Scraper.BaseURL,
		"requests_per_second", cfg.Scraper.RequestsPerSecond,
	)

	return client, nil
}

// SearchCacheHandle wraps the upstream search result cache with shutdown capability.
type SearchCacheHandle struct {
	*scraper.SearchCache
}

// Shutdown implements do.Shutdownable.
func (h *SearchCacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchCache provides the TTL cache for upstream search results.
func ProvideSearchCache(i do.Injector) (*SearchCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cachePath := filepath.Join(cfg.Data.BasePath, "searchcache")
	cache, err := scraper.OpenSearchCache(cachePath, cfg.Scraper.SearchCacheTTL, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Search result cache opened",
		"path", cachePath,
		"ttl", cfg.Scraper.SearchCacheTTL,
	)

	return &SearchCacheHandle{SearchCache: cache}, nil
}
