package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zapgroups/admin-api/internal/auth"
	"github.com/zapgroups/admin-api/internal/middleware"
	"github.com/zapgroups/admin-api/internal/model"
	"github.com/zapgroups/admin-api/internal/obs"
	"github.com/zapgroups/admin-api/internal/queue"
)

// AuthHandler exposes the session endpoints. Events is set when a message
// broker is configured; audit events are then published best-effort off the
// request path. A nil Events disables auditing.
type AuthHandler struct {
	Sessions *auth.Service
	Events   *queue.Publisher
}

func NewAuthHandler(sessions *auth.Service, events *queue.Publisher) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Events: events}
}

// ----- DTOs -----

type registerReq struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// userResp is the account shape returned to clients; the credential hash
// never appears here.
type userResp struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Department  string     `json:"department,omitempty"`
	Status      string     `json:"status"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type authResp struct {
	User         userResp `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Department:  u.Department,
		Status:      u.Status,
		AvatarURL:   u.AvatarURL,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func clientMeta(c echo.Context) auth.ClientMeta {
	return auth.ClientMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// Register creates an account and returns its first token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name, email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Register(ctx, auth.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
	}, clientMeta(c))
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			obs.Register(obs.ResultDenied)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email already registered"})
		}
		obs.Register(obs.ResultError)
		log.Printf("register failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Registration failed"})
	}

	obs.Register(obs.ResultOK)
	h.publish(c, queue.EventRegister, u)

	return c.JSON(http.StatusCreated, authResp{
		User:         toUserResp(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Login(ctx, req.Email, req.Password, clientMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			obs.Login(obs.ResultDenied)
			h.publish(c, queue.EventLoginFail, model.User{Email: req.Email})
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		case errors.Is(err, auth.ErrAccountInactive):
			obs.Login(obs.ResultInactive)
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Account is not active"})
		}
		obs.Login(obs.ResultError)
		log.Printf("login failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed"})
	}

	obs.Login(obs.ResultOK)
	h.publish(c, queue.EventLogin, u)

	return c.JSON(http.StatusOK, authResp{
		User:         toUserResp(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored chain. Replayed or otherwise invalid tokens get 401 with no detail
// about which check failed.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Refresh token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Refresh(ctx, req.RefreshToken, clientMeta(c))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			obs.Refresh(obs.ResultDenied)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid refresh token"})
		}
		obs.Refresh(obs.ResultError)
		log.Printf("refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Token refresh failed"})
	}

	obs.Refresh(obs.ResultOK)
	h.publish(c, queue.EventRefresh, u)

	return c.JSON(http.StatusOK, authResp{
		User:         toUserResp(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes every session of the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Logout(ctx, u.ID); err != nil {
		log.Printf("logout failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Logout failed"})
	}

	obs.Revocation()
	h.publish(c, queue.EventLogout, u)

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No token provided"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// publish hands an audit event to the background publisher. The request
// never waits on the broker; failures and overflow are logged by the
// publisher.
func (h *AuthHandler) publish(c echo.Context, eventType string, u model.User) {
	if h.Events == nil {
		return
	}
	h.Events.Enqueue(queue.SessionEvent{
		Type:       eventType,
		UserID:     u.ID,
		Email:      u.Email,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
