package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tabstash/tabstash-server/internal/domain"
	"github.com/tabstash/tabstash-server/internal/store"
)

// tabColumns is the ordered list of columns selected in tab queries.
// Must match the scan order in scanTab.
const tabColumns = `id, created_at, updated_at, source_type, url, artist, title,
	difficulty, rating, rating_count, content`

// scanTab scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tab.
func scanTab(scanner interface{ Scan(dest ...any) error }) (*domain.Tab, error) {
	var t domain.Tab

	var (
		createdAt  string
		updatedAt  string
		sourceType string
	)

	err := scanner.Scan(
		&t.ID,
		&createdAt,
		&updatedAt,
		&sourceType,
		&t.URL,
		&t.Artist,
		&t.Title,
		&t.Difficulty,
		&t.Rating,
		&t.RatingCount,
		&t.Content,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	t.SourceType = domain.SourceType(sourceType)

	return &t, nil
}

// CreateTab inserts a cached tab.
// Returns store.ErrAlreadyExists if a tab with the same URL is already cached.
func (s *Store) CreateTab(ctx context.Context, tab *domain.Tab) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tabs (
			id, created_at, updated_at, source_type, url, artist, title,
			difficulty, rating, rating_count, content
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tab.ID,
		formatTime(tab.CreatedAt),
		formatTime(tab.UpdatedAt),
		string(tab.SourceType),
		tab.URL,
		tab.Artist,
		tab.Title,
		tab.Difficulty,
		tab.Rating,
		tab.RatingCount,
		tab.Content,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTab retrieves a cached tab by ID.
// Returns store.ErrTabNotFound if the tab does not exist.
func (s *Store) GetTab(ctx context.Context, id string) (*domain.Tab, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tabColumns+` FROM tabs WHERE id = ?`, id)

	t, err := scanTab(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrTabNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTabByURL retrieves a cached tab by its source URL.
// Returns store.ErrTabNotFound on a cache miss.
func (s *Store) GetTabByURL(ctx context.Context, url string) (*domain.Tab, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tabColumns+` FROM tabs WHERE url = ?`, url)

	t, err := scanTab(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrTabNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTabs returns all cached tabs ordered by creation time.
func (s *Store) ListTabs(ctx context.Context) ([]*domain.Tab, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tabColumns+` FROM tabs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tabs []*domain.Tab
	for rows.Next() {
		t, err := scanTab(rows)
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}
