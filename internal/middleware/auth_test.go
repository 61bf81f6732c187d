package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapgroups/admin-api/internal/auth"
	"github.com/zapgroups/admin-api/internal/auth/authtest"
	"github.com/zapgroups/admin-api/internal/middleware"
	"github.com/zapgroups/admin-api/internal/model"
)

type mwFixture struct {
	users    *authtest.UserStore
	sessions *auth.Service
	user     model.User
	token    string
}

func newMWFixture(t *testing.T) *mwFixture {
	t.Helper()
	users := authtest.NewUserStore()
	hasher := auth.NewArgon2Hasher(auth.Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1})
	tm := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	sessions := auth.NewService(users, authtest.NewTokenStore(), hasher, tm)

	u, pair, err := sessions.Register(context.Background(), auth.RegisterInput{
		Name: "Ana", Email: "ana@x.com", Password: "secret123",
	}, auth.ClientMeta{})
	require.NoError(t, err)

	return &mwFixture{users: users, sessions: sessions, user: u, token: pair.AccessToken}
}

// do runs a request through Authenticate into a probe handler that reports
// the resolved account.
func (f *mwFixture) do(t *testing.T, authorization string, extra ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	probe := func(c echo.Context) error {
		u, ok := middleware.CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"id": u.ID, "role": u.Role})
	}
	chain := append([]echo.MiddlewareFunc{middleware.Authenticate(f.sessions, f.users)}, extra...)
	e.GET("/probe", probe, chain...)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateMissingHeader(t *testing.T) {
	f := newMWFixture(t)
	rec := f.do(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateBadToken(t *testing.T) {
	f := newMWFixture(t)
	rec := f.do(t, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateResolvesAccount(t *testing.T) {
	f := newMWFixture(t)
	rec := f.do(t, "Bearer "+f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	f := newMWFixture(t)
	f.users.Delete(f.user.ID)
	rec := f.do(t, "Bearer "+f.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	// A still-valid token stops working the moment the account is
	// deactivated; the middleware checks the store, not just the signature.
	f := newMWFixture(t)
	f.users.SetStatus(f.user.ID, model.StatusInactive)
	rec := f.do(t, "Bearer "+f.token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	f := newMWFixture(t)

	rec := f.do(t, "Bearer "+f.token, middleware.RequireAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.users.SetRole(f.user.ID, model.RoleAdmin)
	rec = f.do(t, "Bearer "+f.token, middleware.RequireAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}
