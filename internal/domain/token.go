package domain

import "time"

// RefreshToken is an opaque, server-side token exchanged for a new access
// token. Tokens are single use; a refresh rotates the row.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
