package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapgroups/admin-api/internal/auth"
	"github.com/zapgroups/admin-api/internal/auth/authtest"
	"github.com/zapgroups/admin-api/internal/model"
)

type fixture struct {
	users   *authtest.UserStore
	tokens  *authtest.TokenStore
	tm      *auth.TokenManager
	service *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := authtest.NewUserStore()
	tokens := authtest.NewTokenStore()
	hasher := auth.NewArgon2Hasher(auth.Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1})
	tm := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return &fixture{
		users:   users,
		tokens:  tokens,
		tm:      tm,
		service: auth.NewService(users, tokens, hasher, tm),
	}
}

func (f *fixture) register(t *testing.T) (model.User, auth.TokenPair, string) {
	t.Helper()
	password := gofakeit.Password(true, true, true, false, false, 12)
	u, pair, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: password,
	}, auth.ClientMeta{IP: "10.0.0.1", UserAgent: "go-test"})
	require.NoError(t, err)
	return u, pair, password
}

func TestRegisterIssuesVerifiableTokens(t *testing.T) {
	f := newFixture(t)
	u, pair, _ := f.register(t)

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := f.service.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)

	// The stored record holds a hash plus audit metadata, never the raw token.
	recs := f.tokens.Records()
	require.Len(t, recs, 1)
	assert.NotEqual(t, pair.RefreshToken, recs[0].TokenHash)
	assert.Equal(t, "10.0.0.1", recs[0].IPAddress)
	assert.Equal(t, "go-test", recs[0].UserAgent)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	u, _, _ := f.register(t)

	_, _, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     "someone else",
		Email:    u.Email,
		Password: "another-password",
	}, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestEmailCasePreservedAndMatchedExactly(t *testing.T) {
	// Emails are stored as submitted and compared byte for byte, so two
	// addresses differing only in case are distinct accounts.
	f := newFixture(t)

	first, _, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     "Ana",
		Email:    "Ana@Example.com",
		Password: "first-password",
	}, auth.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Ana@Example.com", first.Email)

	second, _, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     "ana",
		Email:    "ana@example.com",
		Password: "second-password",
	}, auth.ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, _, err := f.service.Login(context.Background(), "ana@example.com", "second-password", auth.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	// A casing that matches no stored row is an unknown account.
	_, _, err = f.service.Login(context.Background(), "ANA@EXAMPLE.COM", "first-password", auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginHappyPath(t *testing.T) {
	f := newFixture(t)
	u, registerPair, password := f.register(t)

	got, loginPair, err := f.service.Login(context.Background(), u.Email, password, auth.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, loginPair.AccessToken)
	assert.NotEqual(t, registerPair.RefreshToken, loginPair.RefreshToken)

	claims, err := f.service.VerifyAccessToken(loginPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// last_login_at stamped.
	stored, err := f.users.ByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	u, _, password := f.register(t)

	_, _, err := f.service.Login(context.Background(), "nobody@example.com", password, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = f.service.Login(context.Background(), u.Email, "wrong-password", auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	f.users.SetStatus(u.ID, model.StatusInactive)
	_, _, err = f.service.Login(context.Background(), u.Email, password, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrAccountInactive)
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	f := newFixture(t)
	u, pair, _ := f.register(t)

	got, next, err := f.service.Refresh(context.Background(), pair.RefreshToken, auth.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// Replaying the already-rotated token must fail: the first call revoked
	// its record.
	_, _, err = f.service.Refresh(context.Background(), pair.RefreshToken, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// The successor still works.
	_, _, err = f.service.Refresh(context.Background(), next.RefreshToken, auth.ClientMeta{})
	assert.NoError(t, err)
}

func TestRefreshRevokesEveryActiveChain(t *testing.T) {
	// Current behavior: rotation revokes ALL active records for the account,
	// so a second device's session dies when the first refreshes.
	f := newFixture(t)
	u, registerPair, password := f.register(t)

	_, loginPair, err := f.service.Login(context.Background(), u.Email, password, auth.ClientMeta{})
	require.NoError(t, err)

	_, _, err = f.service.Refresh(context.Background(), loginPair.RefreshToken, auth.ClientMeta{})
	require.NoError(t, err)

	_, _, err = f.service.Refresh(context.Background(), registerPair.RefreshToken, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshInvalidInputs(t *testing.T) {
	f := newFixture(t)
	u, pair, _ := f.register(t)

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		_, _, err := f.service.Refresh(context.Background(), bad, auth.ClientMeta{})
		assert.ErrorIs(t, err, auth.ErrInvalidToken, "input %q", bad)
	}

	// Valid signature but the account went inactive.
	f.users.SetStatus(u.ID, model.StatusInactive)
	_, _, err := f.service.Refresh(context.Background(), pair.RefreshToken, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Valid signature but the account is gone.
	f.users.SetStatus(u.ID, model.StatusActive)
	f.users.Delete(u.ID)
	_, _, err = f.service.Refresh(context.Background(), pair.RefreshToken, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshRejectsExpiredRecord(t *testing.T) {
	// The stored record's expires_at governs record validity even while the
	// refresh JWT's own exp is still in the future.
	f := newFixture(t)
	now := time.Now().UTC()
	f.tm.SetClock(func() time.Time { return now })

	_, pair, _ := f.register(t)

	now = now.Add(7*24*time.Hour + time.Minute)
	_, _, err := f.service.Refresh(context.Background(), pair.RefreshToken, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLogoutRevokesAllAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	u, registerPair, password := f.register(t)
	_, loginPair, err := f.service.Login(context.Background(), u.Email, password, auth.ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), u.ID))

	_, _, err = f.service.Refresh(context.Background(), registerPair.RefreshToken, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, _, err = f.service.Refresh(context.Background(), loginPair.RefreshToken, auth.ClientMeta{})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Second logout is a no-op.
	assert.NoError(t, f.service.Logout(context.Background(), u.ID))

	// Rows are retained for audit, just revoked.
	for _, rec := range f.tokens.Records() {
		assert.True(t, rec.Revoked)
	}
}
