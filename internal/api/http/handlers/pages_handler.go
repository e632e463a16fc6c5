package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/auth"
	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/views"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

// PagesHandler renders the current screen of a session.
type PagesHandler struct {
	renderer *views.Renderer
	appName  string
	logger   *zap.Logger
}

// NewPagesHandler constructs handler.
func NewPagesHandler(renderer *views.Renderer, appName string, logger *zap.Logger) *PagesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PagesHandler{renderer: renderer, appName: appName, logger: logger}
}

// Show handles GET /.
func (h *PagesHandler) Show(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, h.pageData(principal))
}

// Navigate handles GET /go/:page.
func (h *PagesHandler) Navigate(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	principal.Shell.Navigate(domain.Page(c.Params("page")))
	return redirectHome(c)
}

// renderForm shows an anonymous form view with an inline error instead of
// redirecting, so the visitor keeps their input.
func (h *PagesHandler) renderForm(c *fiber.Ctx, principal *auth.Principal, view views.View, cause error, form map[string]string) error {
	data := h.pageData(principal)
	if data.User() == nil {
		data.View = view
	}
	data.FormError = apperrors.UserMessage(cause)
	for k, v := range form {
		data.Form[k] = v
	}

	status := http.StatusBadRequest
	if domainErr := apperrors.ToDomainError(cause); domainErr.HTTPStatus >= http.StatusBadRequest {
		status = domainErr.HTTPStatus
	}
	if status >= http.StatusInternalServerError {
		h.logger.Warn("form submission failed", zap.String("view", string(view)), zap.Error(cause))
	}
	return h.render(c, status, data)
}

func (h *PagesHandler) pageData(principal *auth.Principal) views.PageData {
	st := principal.Shell.Snapshot()
	notice := principal.Shell.TakeNotice()
	return views.NewPageData(h.appName, st, notice)
}

func (h *PagesHandler) render(c *fiber.Ctx, status int, data views.PageData) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return h.renderer.Render(c, data)
}

func principalOf(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewInternalError(nil)
	}
	return principal, nil
}

// redirectHome finishes a form post with post/redirect/get.
func redirectHome(c *fiber.Ctx) error {
	return c.Redirect("/", fiber.StatusSeeOther)
}
