package controller

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"panoproperty_backend/internal/deeplink"
	"panoproperty_backend/internal/middleware"
)

// ResolveLink opens the view a shared ?property= or ?seller= link points at.
// Unknown property ids resolve to no target.
func (h *Handler) ResolveLink(c *fiber.Ctx) error {
	query := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		query.Add(string(key), string(value))
	})
	target := deeplink.Parse(query)

	if target.Kind == deeplink.KindProperty {
		if err := h.Catalog.Load(c.UserContext()); err != nil {
			return h.fail(c, err)
		}
		property, ok := h.Catalog.Get(target.ID)
		if !ok {
			return c.JSON(fiber.Map{"target": deeplink.Target{}})
		}
		return c.JSON(fiber.Map{
			"target":   target,
			"property": viewOf(property, middleware.Session(c)),
		})
	}
	return c.JSON(fiber.Map{"target": target})
}

// ShareLink builds the shareable URL of a listing or seller. The base may be
// given as ?base= to keep the caller's other parameters.
func (h *Handler) ShareLink(c *fiber.Ctx) error {
	target := deeplink.Target{Kind: deeplink.Kind(c.Params("kind")), ID: c.Params("id")}
	if target.Kind != deeplink.KindProperty && target.Kind != deeplink.KindSeller {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown link kind",
		})
	}

	base := c.Query("base", h.PublicBaseURL)
	link, err := deeplink.Build(base, target)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid base URL",
		})
	}
	return c.JSON(fiber.Map{"url": link})
}
