package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// Middleware validates bearer tokens and loads the principal.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. The websocket
// endpoint cannot set headers from the browser client, so a token supplied
// via the access_token query parameter is accepted as a fallback.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		token = c.Query("access_token")
	}
	if token == "" {
		return util.NewUnauthorized("missing authorization token")
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return util.NewUnauthorized("invalid token subject")
	}

	user, err := m.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewUnauthorized("user not found")
		}
		return util.MapError(err)
	}
	if !user.IsActive {
		return util.NewUnauthorized("account deactivated")
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
