package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"panoproperty_backend/internal/middleware"
	"panoproperty_backend/internal/session"
)

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api", middleware.AuthMiddleware(h.Sessions, h.Logger))

	// Auth Routes
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/signup", h.SignUp)
	auth.Post("/signin", h.SignIn)
	auth.Get("/oauth", h.OAuthStart)
	auth.Get("/oauth/callback", h.OAuthCallback)
	auth.Post("/signout", middleware.RequireSignIn(), h.SignOut)

	// Public Routes
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	api.Get("/properties", h.ListProperties)
	api.Get("/properties/:id", h.GetProperty)
	api.Get("/sellers/:id", h.GetSeller)
	api.Get("/links/resolve", h.ResolveLink)
	api.Get("/links/:kind/:id", h.ShareLink)

	// Session Routes
	me := api.Group("/me", middleware.RequireSignIn())
	me.Get("/", h.GetMe)
	me.Post("/become-seller", middleware.RequireCapability("become a seller", func(c session.Capabilities) bool {
		return c.BecomeSeller
	}), h.BecomeSeller)

	canSave := middleware.RequireCapability("save properties", func(c session.Capabilities) bool {
		return c.SaveProperties
	})
	me.Get("/saved", canSave, h.ListSaved)
	api.Post("/properties/:id/save", canSave, h.ToggleSaved)

	// Seller Routes
	canManage := middleware.RequireCapability("manage listings", func(c session.Capabilities) bool {
		return c.ManageListings
	})
	canList := middleware.RequireCapability("list a property", func(c session.Capabilities) bool {
		return c.ListProperty
	})
	owned := middleware.CheckPropertyOwnership(h.Catalog)

	me.Get("/properties", canManage, h.ListMyProperties)
	api.Post("/properties", canList, h.CreateProperty)
	api.Get("/properties/:id/form", canManage, owned, h.GetPropertyForm)
	api.Put("/properties/:id", canManage, owned, h.UpdateProperty)
	api.Delete("/properties/:id", canManage, owned, h.DeleteProperty)
}
