package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"panoproperty_backend/internal/auth"
	"panoproperty_backend/internal/middleware"
	"panoproperty_backend/internal/model"
	"panoproperty_backend/internal/session"
)

type meResponse struct {
	Session      *auth.Session        `json:"session"`
	Profile      *model.Profile       `json:"profile"`
	Capabilities session.Capabilities `json:"capabilities"`
	SavedIDs     []string             `json:"savedIds"`
}

func newMeResponse(holder *session.Holder) meResponse {
	return meResponse{
		Session:      holder.Session(),
		Profile:      holder.Profile(),
		Capabilities: holder.Capabilities(),
		SavedIDs:     holder.SavedIDs(),
	}
}

// signedIn loads the holder of a fresh session so its profile and any staged
// role are in place before responding.
func (h *Handler) signedIn(c *fiber.Ctx, s *auth.Session, status int) error {
	holder, err := h.Sessions.Get(c.UserContext(), s.AccessToken)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(status).JSON(newMeResponse(holder))
}

func (h *Handler) SignUp(c *fiber.Ctx) error {
	input := new(auth.SignUpInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	s, err := h.Auth.SignUp(c.UserContext(), *input)
	if err != nil {
		return h.fail(c, err)
	}
	if role, ok := model.ParseRole(input.Role); ok {
		h.Pending.Stage(s.ID, role)
	}
	return h.signedIn(c, s, fiber.StatusCreated)
}

func (h *Handler) SignIn(c *fiber.Ctx) error {
	input := new(auth.SignInInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	s, err := h.Auth.SignIn(c.UserContext(), *input)
	if err != nil {
		return h.fail(c, err)
	}
	return h.signedIn(c, s, fiber.StatusOK)
}

// OAuthStart returns the Google sign-in URL. A role chosen before the
// redirect is staged under the state and applied once the session exists.
func (h *Handler) OAuthStart(c *fiber.Ctx) error {
	state := uuid.NewString()
	url, err := h.Auth.OAuthURL(state)
	if err != nil {
		return h.fail(c, err)
	}
	if role, ok := model.ParseRole(c.Query("role")); ok {
		h.Pending.Stage(state, role)
	}
	return c.JSON(fiber.Map{
		"url":   url,
		"state": state,
	})
}

func (h *Handler) OAuthCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing authorization code",
		})
	}

	s, err := h.Auth.ExchangeOAuth(c.UserContext(), code)
	if err != nil {
		return h.fail(c, err)
	}
	if state := c.Query("state"); state != "" {
		h.Pending.Rekey(state, s.ID)
	}
	return h.signedIn(c, s, fiber.StatusOK)
}

func (h *Handler) SignOut(c *fiber.Ctx) error {
	if err := h.Auth.SignOut(c.UserContext(), middleware.Token(c)); err != nil {
		return h.fail(c, err)
	}
	h.Logger.Debug("session closed", zap.Int("live_sessions", h.Sessions.Len()))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetMe(c *fiber.Ctx) error {
	return c.JSON(newMeResponse(middleware.Session(c)))
}

type becomeSellerInput struct {
	Confirmed bool `json:"confirmed"`
}

func (h *Handler) BecomeSeller(c *fiber.Ctx) error {
	input := new(becomeSellerInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	holder := middleware.Session(c)
	if err := holder.BecomeSeller(c.UserContext(), input.Confirmed); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newMeResponse(holder))
}
