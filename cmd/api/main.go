// Package main provides the entry point for the TabStash server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/tabstash/tabstash-server/internal/di"
	"github.com/tabstash/tabstash-server/internal/di/providers"
	"github.com/tabstash/tabstash-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// Database, search index, and search cache use wrapper types and need
	// explicit shutdown
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing database...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}

	if indexHandle, err := do.Invoke[*providers.SearchIndexHandle](injector); err == nil {
		log.Info("Closing tab index...")
		if err := indexHandle.Shutdown(); err != nil {
			log.Error("Failed to close tab index", "error", err)
		}
	}

	if cacheHandle, err := do.Invoke[*providers.SearchCacheHandle](injector); err == nil {
		log.Info("Closing search cache...")
		if err := cacheHandle.Shutdown(); err != nil {
			log.Error("Failed to close search cache", "error", err)
		}
	}

	log.Info("Goodbye")
}
