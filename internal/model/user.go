package model

import "time"

// Role and status values stored in users.role / users.status.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User mirrors the 'users' table. PasswordHash holds an argon2id PHC string
// and must never leave the server; handlers build separate response types.
type User struct {
	ID           uint64     // users.id
	Name         string     // users.name
	Email        string     // users.email (unique)
	PasswordHash string     // users.password_hash
	Role         string     // users.role (admin|user)
	Status       string     // users.status (active|inactive)
	Department   string     // users.department (empty when NULL)
	AvatarURL    string     // users.avatar_url (empty when NULL)
	LastLoginAt  *time.Time // users.last_login_at (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// IsActive reports whether the account may authenticate.
func (u User) IsActive() bool { return u.Status == StatusActive }
