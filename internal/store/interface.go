// Package store defines the persistence interface for the TabStash server.
package store

import (
	"context"

	"github.com/tabstash/tabstash-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByAuthID(ctx context.Context, authID string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Tabs
	CreateTab(ctx context.Context, tab *domain.Tab) error
	GetTab(ctx context.Context, id string) (*domain.Tab, error)
	GetTabByURL(ctx context.Context, url string) (*domain.Tab, error)
	ListTabs(ctx context.Context) ([]*domain.Tab, error)

	// Favorites
	AddFavorite(ctx context.Context, userID, tabID string) error
	RemoveFavorite(ctx context.Context, userID, tabID string) error
	ListFavorites(ctx context.Context, userID string) ([]*domain.Tab, error)
	IsFavorite(ctx context.Context, userID, tabID string) (bool, error)

	// Auth Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error)
	DeleteAllUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}
