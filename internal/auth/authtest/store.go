// Package authtest provides in-memory store implementations for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/zapgroups/admin-api/internal/auth"
	"github.com/zapgroups/admin-api/internal/model"
)

// UserStore is a map-backed auth.UserStore.
type UserStore struct {
	mu    sync.Mutex
	seq   uint64
	users map[uint64]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uint64]model.User)}
}

func (s *UserStore) Create(_ context.Context, nu auth.NewUser) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == nu.Email {
			return model.User{}, auth.ErrDuplicateEmail
		}
	}
	s.seq++
	now := time.Now().UTC()
	u := model.User{
		ID:           s.seq,
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		Status:       nu.Status,
		Department:   nu.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *UserStore) ByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, auth.ErrNotFound
}

func (s *UserStore) ByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, auth.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) TouchLastLogin(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		now := time.Now().UTC()
		u.LastLoginAt = &now
		s.users[id] = u
	}
	return nil
}

// SetStatus flips an account's status, for inactive-account scenarios.
func (s *UserStore) SetStatus(id uint64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Status = status
		s.users[id] = u
	}
}

// SetRole changes an account's role, for authorization scenarios.
func (s *UserStore) SetRole(id uint64, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Role = role
		s.users[id] = u
	}
}

// Delete removes an account, for missing-account scenarios.
func (s *UserStore) Delete(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// TokenStore is a slice-backed auth.TokenStore with the same rotation
// semantics as the MySQL implementation.
type TokenStore struct {
	mu   sync.Mutex
	seq  uint64
	recs []model.RefreshToken
}

func NewTokenStore() *TokenStore { return &TokenStore{} }

func (s *TokenStore) Insert(_ context.Context, rec model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(rec)
	return nil
}

func (s *TokenStore) ActiveByUser(_ context.Context, userID uint64, now time.Time) ([]model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RefreshToken
	for _, rec := range s.recs {
		if rec.UserID == userID && rec.Usable(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *TokenStore) Rotate(_ context.Context, userID uint64, next model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeAllLocked(userID)
	s.insertLocked(next)
	return nil
}

func (s *TokenStore) RevokeAll(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeAllLocked(userID)
	return nil
}

// Records returns a copy of all stored records, revoked included.
func (s *TokenStore) Records() []model.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RefreshToken, len(s.recs))
	copy(out, s.recs)
	return out
}

func (s *TokenStore) insertLocked(rec model.RefreshToken) {
	s.seq++
	rec.ID = s.seq
	rec.CreatedAt = time.Now().UTC()
	s.recs = append(s.recs, rec)
}

func (s *TokenStore) revokeAllLocked(userID uint64) {
	for i := range s.recs {
		if s.recs[i].UserID == userID {
			s.recs[i].Revoked = true
		}
	}
}
