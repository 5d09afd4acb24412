package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/tabstash/tabstash-server/internal/domain"
)

// TabIndex wraps a Bleve index over the local tab cache.
//
// Thread safety: all public methods are safe for concurrent use.
type TabIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the tab index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// NewTabIndex creates or opens the tab search index.
// A corrupted index or an outdated mapping version is removed and recreated.
func NewTabIndex(opts Options) (*TabIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "tabs.bleve")
	versionPath := filepath.Join(opts.DataPath, "tabs.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("tab index mapping version changed, will rebuild",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing tab index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write tab index version file", "error", writeErr)
		}
		logger.Info("created new tab index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing tab index", "path", indexPath)
	}

	return &TabIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *TabIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexTab adds or updates a cached tab in the index.
func (s *TabIndex) IndexTab(tab *domain.Tab) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := DocumentFromTab(tab)
	// Convert to map so field names match the mapping (lowercase).
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexTabs indexes multiple tabs in one batch. Used when rebuilding the
// index from the tab cache at startup.
func (s *TabIndex) IndexTabs(tabs []*domain.Tab) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, tab := range tabs {
		doc := DocumentFromTab(tab)
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	return s.index.Batch(batch)
}

// DocumentCount returns the total number of indexed tabs.
func (s *TabIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
