// Package controller exposes the listing application over HTTP.
package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panoproperty_backend/internal/auth"
	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/catalog"
	"panoproperty_backend/internal/listing"
	"panoproperty_backend/internal/saved"
	"panoproperty_backend/internal/session"
)

// Deps are the services the handlers call.
type Deps struct {
	Auth     *auth.Service
	Sessions *session.Registry
	Pending  *session.PendingRoles
	Catalog  *catalog.Catalog
	Workflow *listing.Workflow
	Saved    *saved.Toggler
	Profiles backend.ProfileStore
	// PublicBaseURL is the origin shareable links point at.
	PublicBaseURL string
	Logger        *zap.Logger
}

type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// fail maps a service error to its response.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var (
		verr       *listing.ValidationError
		fieldErrs  validator.ValidationErrors
		stepErr    *listing.StepError
		partialErr *listing.PartialWriteError
	)

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Invalid input",
			"fields": fields,
		})
	case errors.As(err, &partialErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":      partialErr.Error(),
			"step":       partialErr.Step,
			"partial":    true,
			"propertyId": partialErr.PropertyID,
		})
	case errors.As(err, &stepErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": stepErr.Error(),
			"step":  stepErr.Step,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, backend.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoSession),
		errors.Is(err, session.ErrSignInRequired):
		status = fiber.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, listing.ErrSubmissionInProgress):
		status = fiber.StatusConflict
	case errors.Is(err, listing.ErrNotOwner):
		status = fiber.StatusForbidden
	case errors.Is(err, session.ErrConfirmationRequired):
		status = fiber.StatusPreconditionRequired
	case errors.Is(err, auth.ErrOAuthDisabled):
		status = fiber.StatusNotImplemented
	case errors.Is(err, auth.ErrOAuthProfile):
		status = fiber.StatusBadGateway
	}
	if status == fiber.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
