package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/tabstash/tabstash-server/internal/config"
	"github.com/tabstash/tabstash-server/internal/logger"
	"github.com/tabstash/tabstash-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.TabIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve tab index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewTabIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Tab index initialized", "documents", docCount)

	return &SearchIndexHandle{TabIndex: index}, nil
}

// TriggerIndexRebuildIfNeeded reindexes cached tabs when the index is empty.
// Should be called after all services are wired.
func TriggerIndexRebuildIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	tabs, err := storeHandle.ListTabs(ctx)
	if err != nil || len(tabs) == 0 {
		return
	}

	log.Info("Tab index is empty but cached tabs exist, triggering rebuild",
		"tab_count", len(tabs),
	)

	go func() {
		if err := indexHandle.IndexTabs(tabs); err != nil {
			log.Error("Tab index rebuild failed", "error", err)
		} else {
			count, _ := indexHandle.DocumentCount()
			log.Info("Tab index rebuild completed", "documents", count)
		}
	}()
}
