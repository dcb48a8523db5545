package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/session"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

const sessionKey = "auth_session"

// AuthMiddleware validates bearer tokens against live sessions.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions session.Store
	lookups  session.Lookups
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions session.Store, lookups session.Lookups) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, lookups: lookups}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return apperrors.NewUnauthorized("invalid token subject")
	}

	owner, err := m.sessions.Touch(c.UserContext(), claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return apperrors.NewUnauthorized("session expired")
		}
		return apperrors.MapError(err)
	}
	if owner != userID {
		return apperrors.NewUnauthorized("session does not belong to token subject")
	}

	sc := session.NewContext(m.sessions, m.lookups, claims.SessionID, userID)
	user, err := sc.User(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	if user == nil {
		return apperrors.NewUnauthorized("user not found")
	}

	c.Locals(sessionKey, sc)
	return c.Next()
}

// SessionFromContext returns the request's session context, anonymous when
// the request was not authenticated.
func SessionFromContext(c *fiber.Ctx) *session.Context {
	if sc, ok := c.Locals(sessionKey).(*session.Context); ok {
		return sc
	}
	return session.Anonymous()
}
