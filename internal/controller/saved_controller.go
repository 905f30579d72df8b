package controller

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panoproperty_backend/internal/middleware"
	"panoproperty_backend/internal/model"
)

// ToggleSaved flips the saved state of a listing for the signed-in user.
func (h *Handler) ToggleSaved(c *fiber.Ctx) error {
	holder := middleware.Session(c)
	propertyID := c.Params("id")

	isSaved, err := h.Saved.Toggle(c.UserContext(), holder, propertyID)
	if err != nil {
		h.Logger.Warn("saved toggle failed",
			zap.String("user_id", holder.UserID()),
			zap.String("property_id", propertyID),
			zap.Error(err))
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"propertyId": propertyID,
		"saved":      isSaved,
	})
}

// ListSaved returns the loaded listings the user saved, in catalog order.
// Saved ids of listings that no longer exist are skipped.
func (h *Handler) ListSaved(c *fiber.Ctx) error {
	if err := h.Catalog.Load(c.UserContext()); err != nil {
		return h.fail(c, err)
	}

	holder := middleware.Session(c)
	var properties []model.Property
	for _, p := range h.Catalog.All() {
		if holder.IsSaved(p.ID) {
			properties = append(properties, p)
		}
	}
	return c.JSON(fiber.Map{
		"properties": viewsOf(properties, holder),
		"savedIds":   holder.SavedIDs(),
	})
}
