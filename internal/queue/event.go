// Package queue defines session audit events exchanged over the message
// broker and the background consumer that records them.
package queue

// Session event types published to the session.events queue.
const (
	EventLogin     = "login"
	EventRegister  = "register"
	EventRefresh   = "refresh"
	EventLogout    = "logout"
	EventLoginFail = "login_failed"
)

// SessionEvent is published whenever a session is issued, rotated or
// revoked. It carries enough for downstream consumers to audit or alert
// without querying the primary database.
type SessionEvent struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	OccurredAt string `json:"occurred_at"` // RFC 3339, UTC
}
