package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabstash/tabstash-server/internal/domain"
	domainerrors "github.com/tabstash/tabstash-server/internal/errors"
)

func (s *Server) registerFavoriteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "addFavoriteTab",
		Method:      http.MethodPost,
		Path:        "/api/addFavoriteTab",
		Summary:     "Add favorite",
		Description: "Marks a cached tab as a favorite of the authenticated user. Idempotent.",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFavorites",
		Method:      http.MethodGet,
		Path:        "/api/getFavorites/{user_id}",
		Summary:     "List favorites",
		Description: "Returns a user's favorite tabs, newest favorite first.",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFavorite",
		Method:      http.MethodPost,
		Path:        "/api/deleteFavorite",
		Summary:     "Remove favorite",
		Description: "Removes a favorite and returns the updated list. Removing a tab that was never favorited is a no-op.",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteFavorite)
}

// === DTOs ===

// FavoriteRequest identifies the tab to favorite or unfavorite.
type FavoriteRequest struct {
	TabID string `json:"tab_id" validate:"required,max=100" doc:"Cached tab ID"`
}

// FavoriteInput wraps the favorite request for Huma.
type FavoriteInput struct {
	Body FavoriteRequest
}

// FavoritesInput contains the favorites list path parameters.
type FavoritesInput struct {
	UserID string `path:"user_id" validate:"required,max=100" doc:"User whose favorites to list"`
}

// FavoritesResponse contains a user's favorite tabs.
type FavoritesResponse struct {
	UserID    string        `json:"user_id" doc:"Owner of the favorites"`
	Favorites []TabResponse `json:"favorites" doc:"Favorite tabs, newest first"`
}

// FavoritesOutput wraps the favorites response for Huma.
type FavoritesOutput struct {
	Body FavoritesResponse
}

// === Handlers ===

func (s *Server) handleAddFavorite(ctx context.Context, input *FavoriteInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Favorite.Add(ctx, userID, input.Body.TabID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Favorite added"}}, nil
}

func (s *Server) handleGetFavorites(ctx context.Context, input *FavoritesInput) (*FavoritesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if input.UserID != userID {
		return nil, domainerrors.Forbidden("cannot list another user's favorites")
	}

	tabs, err := s.services.Favorite.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &FavoritesOutput{Body: mapFavoritesResponse(userID, tabs)}, nil
}

func (s *Server) handleDeleteFavorite(ctx context.Context, input *FavoriteInput) (*FavoritesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tabs, err := s.services.Favorite.Remove(ctx, userID, input.Body.TabID)
	if err != nil {
		return nil, err
	}

	return &FavoritesOutput{Body: mapFavoritesResponse(userID, tabs)}, nil
}

// === Helpers ===

func mapFavoritesResponse(userID string, tabs []*domain.Tab) FavoritesResponse {
	favorites := make([]TabResponse, 0, len(tabs))
	for _, tab := range tabs {
		favorites = append(favorites, mapTabResponse(tab, false))
	}
	return FavoritesResponse{UserID: userID, Favorites: favorites}
}
