// Package di provides dependency injection configuration for the TabStash server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tabstash/tabstash-server/internal/auth"
	"github.com/tabstash/tabstash-server/internal/config"
	"github.com/tabstash/tabstash-server/internal/di/providers"
	"github.com/tabstash/tabstash-server/internal/logger"
	"github.com/tabstash/tabstash-server/internal/scraper"
	"github.com/tabstash/tabstash-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Upstream scraper layer
	do.Provide(injector, providers.ProvideScraperClient)
	do.Provide(injector, providers.ProvideSearchCache)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Identity provider
	do.Provide(injector, providers.ProvideIdentityClient)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTabService)
	do.Provide(injector, providers.ProvideFavoriteService)
	do.Provide(injector, providers.ProvideSearchService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*scraper.Client](injector)
	_ = do.MustInvoke[*providers.SearchCacheHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.IdentityHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.TabService](injector)
	_ = do.MustInvoke[*service.FavoriteService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the tab index from the store if it is empty
	providers.TriggerIndexRebuildIfNeeded(injector)

	return nil
}
