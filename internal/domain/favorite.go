package domain

import "time"

// Favorite links a user to a cached tab. The (UserID, TabID) pair is
// unique; adding the same favorite twice is a no-op.
type Favorite struct {
	UserID    string    `json:"user_id"`
	TabID     string    `json:"tab_id"`
	CreatedAt time.Time `json:"created_at"`
}
