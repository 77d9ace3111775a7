package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/CloudVault/internal/models"
)

// AdminOnly allows only principals with the admin role through. It must
// run after Protected.
func AdminOnly(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	if p.UserID == "" {
		return unauthorized(c, "missing token")
	}
	if p.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "admins only",
		})
	}
	return c.Next()
}
