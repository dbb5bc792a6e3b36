package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig controls the session cookie and its signature.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "bonofacil.sid"
	SessionRedisPrefix = "session:"
	UserSessionsPrefix = "user_sessions:"
	sessionMaxAge      = 24 * time.Hour

	sessionIDLocal   = "session_id"
	sessionUserLocal = "user"
)

// SessionUser is what the session remembers about the signed-in account.
type SessionUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type sessionData struct {
	User *SessionUser `json:"user,omitempty"`
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// Session loads the session named by the cookie before the handler runs and
// saves it afterwards. Cookie values look like "s:<id>.<signature>"; with a
// secret configured, a bad signature means no session.
func Session(cfg SessionConfig, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := parseSessionCookie(c.Cookies(SessionCookieName), cfg.Secret)
		ctx := c.UserContext()

		var data sessionData
		if sessionID != "" {
			b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes()
			switch {
			case err == nil:
				if err := json.Unmarshal(b, &data); err != nil {
					log.Warn().Err(err).Msg("session: discarding unreadable session payload")
				}
			case !errors.Is(err, redis.Nil):
				log.Error().Err(err).Msg("session: redis lookup failed")
			}
		}

		c.Locals(sessionIDLocal, sessionID)
		if data.User != nil {
			c.Locals(sessionUserLocal, data.User)
		}

		if err := c.Next(); err != nil {
			return err
		}

		sid := GetSessionID(c)
		user := GetUser(c)
		if sid == "" || user == nil {
			return nil
		}
		b, err := json.Marshal(sessionData{User: user})
		if err != nil {
			return err
		}
		return rdb.Set(context.Background(), SessionRedisPrefix+sid, b, sessionMaxAge).Err()
	}
}

func parseSessionCookie(raw, secret string) string {
	if !strings.HasPrefix(raw, "s:") {
		return ""
	}
	id, sig, _ := strings.Cut(raw[2:], ".")
	if secret != "" && !hmac.Equal([]byte(sig), []byte(sign(id, secret))) {
		return ""
	}
	return id
}

func sign(id, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SessionCookieValue is the cookie payload for id.
func SessionCookieValue(id, secret string) string {
	if secret == "" {
		return "s:" + id
	}
	return "s:" + id + "." + sign(id, secret)
}

func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// SetSessionUser stores user in the session; it is saved when the handler returns.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	c.Locals(sessionUserLocal, &user)
}

// RegenerateSessionID starts a fresh session id for the current request.
func RegenerateSessionID(c *fiber.Ctx) string {
	id := uuid.New().String()
	c.Locals(sessionIDLocal, id)
	return id
}

// DestroySession forgets the session for the rest of the request so nothing
// is written back. Callers remove the Redis key themselves.
func DestroySession(c *fiber.Ctx) {
	c.Locals(sessionIDLocal, "")
	c.Locals(sessionUserLocal, nil)
}

// SessionCookieConfig returns cookie options shared by sign-in and sign-out.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if cfg.AllowCrossSiteDev {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}
