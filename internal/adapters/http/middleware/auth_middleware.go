package middleware

import (
	"context"
	"strings"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/core/services"
	"village-sabha/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserLoader loads the user behind a session
type UserLoader interface {
	Me(ctx context.Context, userID uint) (*models.User, error)
}

// AuthMiddleware creates authentication middleware. The session user is
// loaded on every request so role and status changes apply immediately.
func AuthMiddleware(creds *services.CredentialService, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Get token from cookie or Authorization header
		accessToken := tokenFrom(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token
		claims, err := creds.ValidateToken(accessToken)
		if err != nil {
			return response.FromError(c, err, "Invalid access token")
		}
		userID, err := services.SubjectID(claims)
		if err != nil {
			return response.FromError(c, err, "Invalid access token")
		}

		// 3. Load user
		user, err := users.Me(c.UserContext(), userID)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				return response.Unauthorized(c, "User no longer exists")
			}
			return response.FromError(c, err, "Failed to load user")
		}

		// 4. Set user info in context
		c.Locals("userID", user.ID)
		c.Locals("role", string(user.Role))
		c.Locals("user", user)

		return c.Next()
	}
}

// tokenFrom reads the access_token cookie, then the bearer header
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		// Check if user's role is in allowed roles
		for _, allowedRole := range allowedRoles {
			if role == string(allowedRole) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Admin access required")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// ApprovedOrMember allows approved users, members and admins
func ApprovedOrMember() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if user.IsAdmin() || user.Status.IsApprovedOrMember() {
			return c.Next()
		}
		return response.Forbidden(c, "You must be an approved member")
	}
}
