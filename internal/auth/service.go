package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zapgroups/admin-api/internal/model"
)

// ClientMeta identifies the client a session was issued to. Stored alongside
// the refresh-token record for audit.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// TokenPair is the credential pair returned by Register, Login and Refresh.
// RefreshToken is the only copy of the raw value; the store keeps its hash.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RegisterInput is the payload for account self-registration.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Department string
}

// Service is the session manager. All dependencies are injected so tests can
// swap stores and the hasher; the token manager's clock (see SetClock) is the
// single time source, so record validity and token expiry stay consistent.
type Service struct {
	users  UserStore
	tokens TokenStore
	hasher PasswordHasher
	tm     *TokenManager
}

func NewService(users UserStore, tokens TokenStore, hasher PasswordHasher, tm *TokenManager) *Service {
	return &Service{users: users, tokens: tokens, hasher: hasher, tm: tm}
}

// Register creates an active account with role 'user' and issues its first
// session. Emails are stored exactly as submitted (whitespace trimmed) and
// uniqueness is case-sensitive; registration fails with ErrDuplicateEmail
// only on an exact match.
func (s *Service) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (model.User, TokenPair, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	u, err := s.users.Create(ctx, NewUser{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         model.RoleUser,
		Status:       model.StatusActive,
		Department:   strings.TrimSpace(in.Department),
	})
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	pair, err := s.issueSession(ctx, u, meta)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies credentials and issues a fresh session. The email must
// match the stored value exactly, casing included. The status check runs
// before password verification, matching the 403-over-401 contract for
// inactive accounts.
func (s *Service) Login(ctx context.Context, email, password string, meta ClientMeta) (model.User, TokenPair, error) {
	u, err := s.users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, err
	}
	if !u.IsActive() {
		return model.User{}, TokenPair{}, ErrAccountInactive
	}
	ok, err := s.hasher.Verify(u.PasswordHash, password)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	if !ok {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}

	// Best effort; a failed timestamp update must not block the login.
	_ = s.users.TouchLastLogin(ctx, u.ID)

	pair, err := s.issueSession(ctx, u, meta)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh redeems a refresh token for a new pair, rotating the stored chain.
// Every expected failure (bad signature, expired, revoked, unknown record,
// missing or inactive account) collapses into ErrInvalidToken so callers
// leak nothing about which check failed.
//
// Rotation revokes ALL active records for the account, not just the record
// presented. Two legitimate concurrent sessions therefore invalidate each
// other on refresh and the loser must log in again; see DESIGN.md.
func (s *Service) Refresh(ctx context.Context, rawToken string, meta ClientMeta) (model.User, TokenPair, error) {
	rawToken = strings.TrimSpace(rawToken)
	userID, err := s.tm.VerifyRefresh(rawToken)
	if err != nil {
		return model.User{}, TokenPair{}, ErrInvalidToken
	}

	// The stored hashes are salted, so the presented token is verified
	// against each live record rather than looked up by digest.
	recs, err := s.tokens.ActiveByUser(ctx, userID, s.tm.now())
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	matched := false
	for _, rec := range recs {
		ok, verr := s.hasher.Verify(rec.TokenHash, rawToken)
		if verr == nil && ok {
			matched = true
			break
		}
	}
	if !matched {
		return model.User{}, TokenPair{}, ErrInvalidToken
	}

	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, TokenPair{}, ErrInvalidToken
		}
		return model.User{}, TokenPair{}, err
	}
	if !u.IsActive() {
		return model.User{}, TokenPair{}, ErrInvalidToken
	}

	rawNext, rec, access, accessExp, err := s.mintSession(u, meta)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	// Revoke-all plus insert commit together; a concurrent racer on the same
	// account fails its record lookup once this lands.
	if err := s.tokens.Rotate(ctx, userID, rec); err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rawNext,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// Logout revokes every refresh record for the account. Calling it again is a
// no-op.
func (s *Service) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAll(ctx, userID)
}

// VerifyAccessToken validates signature and expiry and returns the embedded
// claims. No store access; safe to call on every request.
func (s *Service) VerifyAccessToken(token string) (Claims, error) {
	return s.tm.VerifyAccess(token)
}

// issueSession mints a pair and persists the refresh record without touching
// existing records (register and login start new chains side by side).
func (s *Service) issueSession(ctx context.Context, u model.User, meta ClientMeta) (TokenPair, error) {
	raw, rec, access, accessExp, err := s.mintSession(u, meta)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.Insert(ctx, rec); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     raw,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// mintSession signs both tokens and builds the refresh record to store. The
// record's expires_at mirrors the refresh JWT's own exp.
func (s *Service) mintSession(u model.User, meta ClientMeta) (raw string, rec model.RefreshToken, access string, accessExp time.Time, err error) {
	raw, refreshExp, err := s.tm.IssueRefresh(u.ID)
	if err != nil {
		return "", model.RefreshToken{}, "", time.Time{}, err
	}
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return "", model.RefreshToken{}, "", time.Time{}, err
	}
	access, accessExp, err = s.tm.IssueAccess(u.ID, u.Role)
	if err != nil {
		return "", model.RefreshToken{}, "", time.Time{}, err
	}
	rec = model.RefreshToken{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: refreshExp,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	return raw, rec, access, accessExp, nil
}
