package scraper

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// SearchCache stores upstream search results with a TTL so repeated
// queries don't hit the upstream at all.
type SearchCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// OpenSearchCache opens (or creates) the cache database at the given path.
func OpenSearchCache(path string, ttl time.Duration, logger *slog.Logger) (*SearchCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open search cache: %w", err)
	}

	return &SearchCache{db: db, ttl: ttl, logger: logger}, nil
}

// Close closes the underlying database.
func (c *SearchCache) Close() error {
	return c.db.Close()
}

// cacheKey namespaces entries by search kind and query.
func cacheKey(kind, query string) []byte {
	return []byte("search:" + kind + ":" + query)
}

// Get returns cached results for the query, or (nil, false) on a miss.
// Expired entries count as misses; badger drops them on its own.
func (c *SearchCache) Get(kind, query string) ([]SearchResult, bool) {
	var results []SearchResult

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(kind, query))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &results)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("search cache read failed",
				slog.String("kind", kind),
				slog.String("query", query),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}
	return results, true
}

// Put stores results for the query with the configured TTL.
// Cache write failures are logged and swallowed; the caller already has
// the results in hand.
func (c *SearchCache) Put(kind, query string, results []SearchResult) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn("search cache marshal failed", slog.String("error", err.Error()))
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(kind, query), data).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.logger.Warn("search cache write failed",
			slog.String("kind", kind),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
}
