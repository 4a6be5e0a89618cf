package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("userID", user.ID)
			c.Locals("role", string(user.Role))
			c.Locals("user", user)
		}
		return c.Next()
	}
}

func okHandler(c *fiber.Ctx) error { return c.SendString("ok") }

func status(t *testing.T, app *fiber.App, path string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAdminOnly(t *testing.T) {
	admin := &models.User{ID: 1, Role: domain.RoleAdmin, Status: domain.StatusApproved}
	user := &models.User{ID: 2, Role: domain.RoleUser, Status: domain.StatusMember}

	app := fiber.New()
	app.Get("/admin", withUser(admin), AdminOnly(), okHandler)
	app.Get("/user", withUser(user), AdminOnly(), okHandler)
	app.Get("/anon", withUser(nil), AdminOnly(), okHandler)

	assert.Equal(t, http.StatusOK, status(t, app, "/admin"))
	assert.Equal(t, http.StatusForbidden, status(t, app, "/user"))
	assert.Equal(t, http.StatusUnauthorized, status(t, app, "/anon"))
}

func TestApprovedOrMember(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"pending", &models.User{Role: domain.RoleUser, Status: domain.StatusPending}, http.StatusForbidden},
		{"approved", &models.User{Role: domain.RoleUser, Status: domain.StatusApproved}, http.StatusOK},
		{"member", &models.User{Role: domain.RoleUser, Status: domain.StatusMember}, http.StatusOK},
		{"admin", &models.User{Role: domain.RoleAdmin, Status: domain.StatusPending}, http.StatusOK},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", withUser(tt.user), ApprovedOrMember(), okHandler)
			assert.Equal(t, tt.want, status(t, app, "/"))
		})
	}
}

func TestCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/public", CacheControl(2*time.Minute), okHandler)
	app.Get("/missing", CacheControl(time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})
	app.Get("/private", NoCacheHeaders(), okHandler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/public", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=120", resp.Header.Get(fiber.HeaderCacheControl))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get(fiber.HeaderCacheControl))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/private", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get(fiber.HeaderCacheControl))
}

func TestCustomErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/domain", func(c *fiber.Ctx) error { return domain.ErrEventNotFound })
	app.Get("/plain", func(c *fiber.Ctx) error { return assert.AnError })

	assert.Equal(t, fiber.StatusTeapot, status(t, app, "/fiber"))
	assert.Equal(t, http.StatusNotFound, status(t, app, "/domain"))
	assert.Equal(t, http.StatusInternalServerError, status(t, app, "/plain"))
}
