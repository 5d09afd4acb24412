package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tabstash/tabstash-server/internal/domain"
	"github.com/tabstash/tabstash-server/internal/store"
)

// AddFavorite links a tab to a user's favorites. Adding an existing
// favorite is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, tabID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, tab_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, tab_id) DO NOTHING`,
		userID, tabID, formatTime(time.Now()),
	)
	if err != nil {
		// Missing user or tab trips the foreign key constraint.
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrNotFound.WithMessage("user or tab not found")
		}
		return err
	}
	return nil
}

// RemoveFavorite unlinks a tab from a user's favorites.
// Returns store.ErrNotFound if the favorite does not exist.
func (s *Store) RemoveFavorite(ctx context.Context, userID, tabID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND tab_id = ?`, userID, tabID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound.WithMessage("favorite not found")
	}
	return nil
}

// ListFavorites returns the user's favorite tabs, most recently added first.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]*domain.Tab, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns(tabColumns, "t")+`
		FROM tabs t
		JOIN favorites f ON f.tab_id = t.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC`, userID)
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

// IsFavorite reports whether the tab is in the user's favorites.
func (s *Store) IsFavorite(ctx context.Context, userID, tabID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE user_id = ? AND tab_id = ?`, userID, tabID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias for use in joins.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
