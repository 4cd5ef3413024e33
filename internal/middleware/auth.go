package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/KrPrince19/CareNest/internal/auth"
	"github.com/KrPrince19/CareNest/internal/schedule"
)

// ClaimsKey is the fiber.Ctx locals key the authenticated claims are stored
// under.
const ClaimsKey = "claims"

// RequireAuth validates the bearer token and stores its claims in the request
// locals. Token expiry is judged against the given clock, the same one that
// stamped the token at login.
func RequireAuth(secret string, clock schedule.Clock) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or malformed authorization header",
			})
		}

		claims, err := auth.ParseToken(secret, token, clock.Now())
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}

// Claims returns the authenticated claims stored by RequireAuth. The second
// return is false on routes that skipped the middleware.
func Claims(c *fiber.Ctx) (auth.Claims, bool) {
	claims, ok := c.Locals(ClaimsKey).(auth.Claims)
	return claims, ok
}
