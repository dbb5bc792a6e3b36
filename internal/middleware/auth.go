package middleware

import (
	"bonofacil-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequireAuth rejects requests without a signed-in user.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user, or nil when nobody is signed in.
func GetUser(c *fiber.Ctx) *SessionUser {
	u, _ := c.Locals(sessionUserLocal).(*SessionUser)
	return u
}

// CurrentUserID parses the session user's id.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	u := GetUser(c)
	if u == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(u.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
