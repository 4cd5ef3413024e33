package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrPrince19/CareNest/internal/auth"
	"github.com/KrPrince19/CareNest/internal/middleware"
	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/testutil"
)

const testSecret = "test-secret"

func newAuthedApp(clock *testutil.Clock) *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware.RequireAuth(testSecret, clock), func(c *fiber.Ctx) error {
		claims, ok := middleware.Claims(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"email": claims.Email})
	})
	return app
}

func protectedRequest(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

// Token lifetime must be judged against the injected clock end to end: a
// token minted at a fixed past instant stays valid until that clock passes
// the TTL, no matter when the test runs.
func TestRequireAuthFollowsInjectedClock(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	app := newAuthedApp(clock)

	user := model.User{Name: "Dad", Email: "dad@example.com", Role: model.RoleElder}
	token, err := auth.NewToken(testSecret, user, time.Hour, clock.Now())
	require.NoError(t, err)

	resp := protectedRequest(t, app, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	clock.Advance(2 * time.Hour)
	resp = protectedRequest(t, app, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	app := newAuthedApp(clock)

	resp := protectedRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = protectedRequest(t, app, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
