package auth

import (
	"errors"

	authsvc "bonofacil-backend/internal/application/auth"
	"bonofacil-backend/internal/domain"
	"bonofacil-backend/internal/middleware"
	"bonofacil-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers serves /api/v1/auth. Users verifies credentials; Accounts
// registers and reloads users and may be nil in tests of sign-in alone.
type Handlers struct {
	Users    authsvc.UserFinder
	Accounts *authsvc.Service
	Rdb      *redis.Client
	Config   middleware.SessionConfig
}

type userView struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func viewOf(u *domain.User) userView {
	return userView{UserID: u.UserID.String(), Username: u.Username, Email: u.Email, Role: u.Role}
}

// POST /api/v1/auth/sign-up
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	if h.Accounts == nil {
		return response.Internal(c)
	}
	var req authsvc.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Accounts.SignUp(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailTaken), errors.Is(err, authsvc.ErrUsernameTaken):
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		case errors.Is(err, authsvc.ErrInvalidUsername),
			errors.Is(err, authsvc.ErrInvalidEmail),
			errors.Is(err, authsvc.ErrInvalidPassword),
			errors.Is(err, authsvc.ErrInvalidRole):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
		log.Error().Err(err).Msg("sign-up failed")
		return response.Internal(c)
	}
	return response.SuccessCreated(c, "User registered successfully", fiber.Map{"user": viewOf(u)}, nil)
}

// POST /api/v1/auth/sign-in
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	if h.Users == nil {
		return response.Internal(c)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	user, err := h.Users.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, authsvc.ErrEmailPasswordRequired):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
		return response.Unauthorized(c, err.Error())
	default:
		log.Error().Err(err).Msg("sign-in lookup failed")
		return response.Internal(c)
	}

	sessionID := middleware.RegenerateSessionID(c)
	view := viewOf(user)
	middleware.SetSessionUser(c, middleware.SessionUser(view))

	if err := h.Rdb.SAdd(c.UserContext(), middleware.UserSessionsPrefix+view.UserID, sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("sign-in: tracking session failed")
		return response.Internal(c)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = middleware.SessionCookieValue(sessionID, h.Config.Secret)
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{"user": view}, nil)
}

// GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	if sessionUser == nil {
		log.Debug().Bool("cookie_present", c.Cookies(middleware.SessionCookieName) != "").Msg("auth/me: no session user")
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	if h.Accounts == nil {
		return response.Success(c, "Authenticated", fiber.Map{"user": sessionUser}, nil)
	}
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	u, err := h.Accounts.CurrentUser(c.UserContext(), id)
	if errors.Is(err, authsvc.ErrNotAuthenticated) {
		return response.Unauthorized(c, err.Error())
	}
	if err != nil {
		log.Error().Err(err).Msg("auth/me: reload failed")
		return response.Internal(c)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": viewOf(u)}, nil)
}

// DELETE /api/v1/auth/sign-out
func (h *Handlers) SignOut(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()
	if sessionID != "" {
		if u := middleware.GetUser(c); u != nil {
			_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+u.UserID, sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}
