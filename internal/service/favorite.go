package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tabstash/tabstash-server/internal/domain"
	domainerrors "github.com/tabstash/tabstash-server/internal/errors"
	"github.com/tabstash/tabstash-server/internal/store"
)

// FavoriteService manages each user's favorite tabs.
type FavoriteService struct {
	store  store.Store
	logger *slog.Logger
}

// NewFavoriteService creates a new favorites service.
func NewFavoriteService(store store.Store, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{store: store, logger: logger}
}

// Add marks a tab as a favorite. Favoriting an already-favorited tab
// is a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID, tabID string) error {
	if tabID == "" {
		return domainerrors.Validation("tab_id is required")
	}

	if err := s.store.AddFavorite(ctx, userID, tabID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tab not found")
		}
		return fmt.Errorf("add favorite: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("Favorite added", "user_id", userID, "tab_id", tabID)
	}

	return nil
}

// List returns the user's favorite tabs, newest favorite first. The
// result is never nil.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]*domain.Tab, error) {
	tabs, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if tabs == nil {
		tabs = []*domain.Tab{}
	}
	return tabs, nil
}

// Remove unmarks a favorite and returns the updated list. Removing a
// tab that was never favorited is a no-op.
func (s *FavoriteService) Remove(ctx context.Context, userID, tabID string) ([]*domain.Tab, error) {
	if tabID == "" {
		return nil, domainerrors.Validation("tab_id is required")
	}

	if err := s.store.RemoveFavorite(ctx, userID, tabID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}

	return s.List(ctx, userID)
}

// IsFavorite reports whether a user has favorited a tab.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, tabID string) (bool, error) {
	fav, err := s.store.IsFavorite(ctx, userID, tabID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return fav, nil
}
