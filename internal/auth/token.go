package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified content of an access token. Role is a snapshot taken
// at issue time and can go stale until the token expires.
type Claims struct {
	UserID uint64
	Role   string
}

// TokenManager signs and verifies the two JWT kinds. Access tokens carry
// {sub, role} and live minutes; refresh tokens carry only {sub} and live
// days, signed with a separate secret so the two can be rotated
// independently. Verification needs no I/O.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for token expiries and for record
// validity checks in the session service. Tests use it to drive expiry edge
// cases; production code never calls it.
func (m *TokenManager) SetClock(now func() time.Time) { m.now = now }

// IssueAccess signs an HS256 access token for the user and returns it with
// its expiry.
func (m *TokenManager) IssueAccess(userID uint64, role string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.accessTTL)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccess checks signature and expiry and returns the embedded claims.
// Any expected failure comes back as ErrInvalidToken.
func (m *TokenManager) VerifyAccess(token string) (Claims, error) {
	claims, err := parseHS256(token, m.accessSecret)
	if err != nil {
		return Claims{}, err
	}
	uid, ok := subjectID(claims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return Claims{UserID: uid, Role: role}, nil
}

// IssueRefresh signs a long-lived refresh token whose claims carry only the
// user id, plus its expiry.
func (m *TokenManager) IssueRefresh(userID uint64) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.refreshTTL)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyRefresh checks signature and expiry of a refresh token and recovers
// the user id.
func (m *TokenManager) VerifyRefresh(token string) (uint64, error) {
	claims, err := parseHS256(token, m.refreshSecret)
	if err != nil {
		return 0, err
	}
	uid, ok := subjectID(claims)
	if !ok {
		return 0, ErrInvalidToken
	}
	return uid, nil
}

// RefreshTTL exposes the configured refresh lifetime so the session service
// can stamp expires_at on stored records consistently with the JWT exp.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func parseHS256(raw string, secret []byte) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// subjectID reads the sub claim. JWT numbers decode as float64; some clients
// re-sign with a string subject, so both are accepted.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case float64:
		if v < 1 {
			return 0, false
		}
		return uint64(v), true
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
