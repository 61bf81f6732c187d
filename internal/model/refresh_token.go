package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. The raw token
// is never stored; TokenHash is an argon2id PHC digest of it. IPAddress and
// UserAgent record the issuing client for audit. Rows are kept after
// revocation rather than deleted.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	Revoked   bool      // refresh_tokens.revoked
	IPAddress string    // refresh_tokens.ip_address (empty when NULL)
	UserAgent string    // refresh_tokens.user_agent (empty when NULL)
	CreatedAt time.Time // refresh_tokens.created_at
}

// Usable reports whether the record may still redeem a refresh, relative to now.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
