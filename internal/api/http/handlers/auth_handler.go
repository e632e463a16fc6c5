package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/api/dto"
	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/views"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

// AuthHandler serves login, signup and logout posts.
type AuthHandler struct {
	pages  *PagesHandler
	logger *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(pages *PagesHandler, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{pages: pages, logger: logger}
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	echo := map[string]string{"email": form.Email}
	if err := dto.Validate(&form); err != nil {
		return h.pages.renderForm(c, principal, views.ViewLogin, err, echo)
	}

	if err := principal.Shell.Login(c.UserContext(), form.Email, form.Password); err != nil {
		h.logger.Debug("login rejected", zap.String("email", form.Email), zap.Error(err))
		return h.pages.renderForm(c, principal, views.ViewLogin, err, echo)
	}
	principal.RenewSession()
	return redirectHome(c)
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var form dto.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	echo := map[string]string{"email": form.Email, "role": form.Role}
	if err := dto.Validate(&form); err != nil {
		return h.pages.renderForm(c, principal, views.ViewSignup, err, echo)
	}

	principal.Shell.Navigate(domain.PageSignup)
	if err := principal.Shell.Signup(c.UserContext(), form.Email, form.Password, domain.Role(form.Role)); err != nil {
		h.logger.Debug("signup rejected", zap.String("email", form.Email), zap.Error(err))
		return h.pages.renderForm(c, principal, views.ViewSignup, err, echo)
	}
	return redirectHome(c)
}

// Confirm handles POST /signup/confirm.
func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var form dto.ConfirmForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	if err := dto.Validate(&form); err != nil {
		return h.pages.renderForm(c, principal, views.ViewSignup, err, nil)
	}

	if err := principal.Shell.Confirm(c.UserContext(), form.Email, form.Code); err != nil {
		h.logger.Debug("confirmation rejected", zap.Error(err))
		return h.pages.renderForm(c, principal, views.ViewSignup, err, nil)
	}
	return redirectHome(c)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := principal.Shell.SignOut(c.UserContext()); err != nil {
		h.logger.Warn("remote sign out failed", zap.String("session", principal.SessionID), zap.Error(err))
	}
	principal.RenewSession()
	return redirectHome(c)
}
