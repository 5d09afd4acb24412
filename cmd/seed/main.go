// Package main provides a tool to seed the database with test data.
//
// This creates a demo user and a handful of cached tabs so the API can be
// exercised without hitting the upstream site.
//
// Usage:
//
//	DATA_PATH=~/tabstash go run ./cmd/seed
//	DATA_PATH=~/tabstash go run ./cmd/seed --password my-dev-password
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tabstash/tabstash-server/internal/auth"
	"github.com/tabstash/tabstash-server/internal/domain"
	"github.com/tabstash/tabstash-server/internal/id"
	"github.com/tabstash/tabstash-server/internal/store/sqlite"
)

var password = flag.String("password", "demo-password-123", "Password for the demo user")

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/tabstash")
	}

	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataPath, "tabstash.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	user := seedUser(ctx, s)
	tabs := seedTabs(ctx, s)

	// Favorite the first two tabs so the favorites endpoints return data
	for i, tab := range tabs {
		if i >= 2 {
			break
		}
		if err := s.AddFavorite(ctx, user.ID, tab.ID); err != nil {
			log.Printf("Failed to add favorite %s: %v", tab.ID, err)
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}
	fmt.Printf("\nDone. %d user(s), %d tab(s) in the database.\n", len(users), len(tabs))
	fmt.Printf("Log in with username %q and the seed password.\n", user.Username)
}

func seedUser(ctx context.Context, s *sqlite.Store) *domain.User {
	existing, err := s.GetUserByUsername(ctx, "demo")
	if err == nil {
		fmt.Printf("User %q already exists (%s)\n", existing.Username, existing.ID)
		return existing
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		log.Fatalf("Failed to generate user ID: %v", err)
	}

	user := &domain.User{
		Entity:       domain.Entity{ID: userID},
		Username:     "demo",
		DisplayName:  "Demo User",
		PasswordHash: hash,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Created user %q (%s)\n", user.Username, user.ID)
	return user
}

func seedTabs(ctx context.Context, s *sqlite.Store) []*domain.Tab {
	samples := []*domain.Tab{
		{
			SourceType:  domain.SourceTypeTab,
			URL:         "https://tabs.example.com/tab/nirvana/come-as-you-are-841",
			Artist:      "Nirvana",
			Title:       "Come As You Are",
			Difficulty:  "novice",
			Rating:      4.8,
			RatingCount: 3211,
			Content:     "e|-----------------|\nB|-----------------|\nG|-----------------|\nD|-----------------|\nA|-----0-0---------|\nE|-0-1-----1-0-----|",
		},
		{
			SourceType:  domain.SourceTypeTab,
			URL:         "https://tabs.example.com/tab/led-zeppelin/stairway-to-heaven-192",
			Artist:      "Led Zeppelin",
			Title:       "Stairway To Heaven",
			Difficulty:  "intermediate",
			Rating:      4.9,
			RatingCount: 5420,
			Content:     "e|-------5-7-----7-|\nB|-----5-----5-----|\nG|---5---------5---|\nD|-7-------6-------|\nA|-----------------|\nE|-----------------|",
		},
		{
			SourceType:  domain.SourceTypeChords,
			URL:         "https://tabs.example.com/tab/bob-dylan/knockin-on-heavens-door-271",
			Artist:      "Bob Dylan",
			Title:       "Knockin' On Heaven's Door",
			Rating:      4.6,
			RatingCount: 1874,
			Content:     "[Verse]\nG        D         Am\nMama, take this badge off of me\nG        D         C\nI can't use it anymore",
		},
	}

	tabs := make([]*domain.Tab, 0, len(samples))
	for _, tab := range samples {
		existing, err := s.GetTabByURL(ctx, tab.URL)
		if err == nil {
			tabs = append(tabs, existing)
			continue
		}

		tabID, err := id.Generate("tab")
		if err != nil {
			log.Fatalf("Failed to generate tab ID: %v", err)
		}
		tab.ID = tabID

		if err := s.CreateTab(ctx, tab); err != nil {
			log.Fatalf("Failed to create tab %s: %v", tab.URL, err)
		}
		fmt.Printf("Created tab %s - %s (%s)\n", tab.Artist, tab.Title, tab.ID)
		tabs = append(tabs, tab)
	}
	return tabs
}
