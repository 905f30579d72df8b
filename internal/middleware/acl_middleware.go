package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/model"
	"panoproperty_backend/internal/session"
)

// RequireCapability rejects sessions whose capabilities fail allowed.
// Signed-out sessions get 401, signed-in ones 403.
func RequireCapability(name string, allowed func(session.Capabilities) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		holder := Session(c)
		if holder == nil || !holder.SignedIn() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Sign in required",
			})
		}
		if !allowed(holder.Capabilities()) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":      "You don't have permission to " + name,
				"capability": name,
			})
		}
		return c.Next()
	}
}

// PropertyFetcher reads one listing from the store.
type PropertyFetcher interface {
	Fetch(ctx context.Context, id string) (model.Property, error)
}

// CheckPropertyOwnership loads the listing named by the :id param and checks
// that it belongs to the signed-in user. The listing is stored under
// LocalProperty.
func CheckPropertyOwnership(properties PropertyFetcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		holder := Session(c)
		if holder == nil || !holder.SignedIn() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Sign in required",
			})
		}

		property, err := properties.Fetch(c.UserContext(), c.Params("id"))
		if errors.Is(err, backend.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Property not found",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		if !property.OwnedBy(holder.UserID()) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to access this property",
			})
		}

		c.Locals(LocalProperty, &property)
		return c.Next()
	}
}

// Property returns the listing loaded by CheckPropertyOwnership.
func Property(c *fiber.Ctx) *model.Property {
	p, _ := c.Locals(LocalProperty).(*model.Property)
	return p
}
