package middleware

import (
	"strings"

	"github.com/bchristie/brutons-tribunal/internal/domain"
	"github.com/bchristie/brutons-tribunal/internal/helper"
	"github.com/bchristie/brutons-tribunal/internal/repository"
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware resolves the caller's identity from the access token. No
// identity means 401 before any route logic runs.
func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// 1) try cookie first
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))

		// 2) fallback to Authorization header
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get("Authorization"))
		}

		user, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		ctx.Locals("userID", uint(user.UserID))
		ctx.Locals("user", user)
		return ctx.Next()
	}
}

// RequireRole gates a route on exact role membership. Runs after
// AuthMiddleware; authorization always precedes the protected operation.
func RequireRole(perms repository.PermissionRepository, roleName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, ok := ctx.Locals("userID").(uint)
		if !ok || userID == 0 {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		hasRole, err := perms.HasRole(userID, roleName)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error",
			})
		}

		if !hasRole {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		return ctx.Next()
	}
}

// AdminOnly is RequireRole for the ADMIN role, which gates the whole admin
// surface.
func AdminOnly(perms repository.PermissionRepository) fiber.Handler {
	return RequireRole(perms, domain.RoleAdmin)
}

// RequirePermission gates a route on a single resolved (resource, action)
// grant. Each request re-resolves the caller's permission set.
func RequirePermission(perms repository.PermissionRepository, resource, action string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, ok := ctx.Locals("userID").(uint)
		if !ok || userID == 0 {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		up, err := perms.GetUserPermissions(userID)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error",
			})
		}

		if !up.Has(resource, action) {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		return ctx.Next()
	}
}
