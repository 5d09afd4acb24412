package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tabstash/tabstash-server/internal/domain"
	"github.com/tabstash/tabstash-server/internal/store"
)

// makeTestUser creates a domain.User with sensible defaults for testing.
func makeTestUser(id, username string) *domain.User {
	now := time.Now()
	return &domain.User{
		Entity: domain.Entity{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:     username,
		DisplayName:  "Test User",
		PasswordHash: "$argon2id$fakehashfortest",
		LastLoginAt:  now,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "Alice")
	user.AvatarURL = "https://example.com/a.png"

	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	if got.ID != user.ID {
		t.Errorf("ID: got %q, want %q", got.ID, user.ID)
	}
	if got.Username != user.Username {
		t.Errorf("Username: got %q, want %q", got.Username, user.Username)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Errorf("PasswordHash: got %q, want %q", got.PasswordHash, user.PasswordHash)
	}
	if got.AvatarURL != user.AvatarURL {
		t.Errorf("AvatarURL: got %q, want %q", got.AvatarURL, user.AvatarURL)
	}
	if got.AuthID != "" {
		t.Errorf("AuthID: got %q, want empty", got.AuthID)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "missing")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetUserByUsernameCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "Alice")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "aLiCe")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q, want user-1", got.ID)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "alice")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Same username, different case.
	err := s.CreateUser(ctx, makeTestUser("user-2", "ALICE"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUserByAuthID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "alice")
	user.AuthID = "auth0|abc123"
	user.PasswordHash = ""
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByAuthID(ctx, "auth0|abc123")
	if err != nil {
		t.Fatalf("GetUserByAuthID: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q, want user-1", got.ID)
	}
	if got.PasswordHash != "" {
		t.Errorf("PasswordHash: got %q, want empty", got.PasswordHash)
	}

	if _, err := s.GetUserByAuthID(ctx, "auth0|other"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMultipleLocalUsersWithoutAuthID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// NULL auth_id must not trip the unique index.
	if err := s.CreateUser(ctx, makeTestUser("user-1", "alice")); err != nil {
		t.Fatalf("CreateUser user-1: %v", err)
	}
	if err := s.CreateUser(ctx, makeTestUser("user-2", "bob")); err != nil {
		t.Fatalf("CreateUser user-2: %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "alice")
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	user.DisplayName = "Alice L."
	user.LastLoginAt = time.Now().Add(time.Hour)
	user.Touch()
	if err := s.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.DisplayName != "Alice L." {
		t.Errorf("DisplayName: got %q, want %q", got.DisplayName, "Alice L.")
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateUser(context.Background(), makeTestUser("ghost", "ghost"))
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		if err := s.CreateUser(ctx, makeTestUser("user-"+name, name)); err != nil {
			t.Fatalf("CreateUser %s: %v", name, err)
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}
}
