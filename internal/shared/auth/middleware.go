package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// localsUserID is the fiber locals key holding the authenticated uuid.UUID.
const localsUserID = "auth.userID"

// RequireAuth rejects requests without a valid bearer token. Browsers cannot
// set headers on a websocket upgrade, so the token query parameter is
// accepted as well.
func RequireAuth(m *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			scheme, value, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				return unauthorized(c, ErrInvalidToken)
			}
			token = value
		}
		if token == "" {
			return unauthorized(c, ErrMissingToken)
		}

		userID, err := m.Validate(token)
		if err != nil {
			return unauthorized(c, err)
		}
		c.Locals(localsUserID, userID)
		return c.Next()
	}
}

// UserID returns the user authenticated by RequireAuth.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localsUserID).(uuid.UUID)
	return id, ok
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"reason": "unauthorized",
		"error":  err.Error(),
	})
}
