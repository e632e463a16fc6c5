package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/api/dto"
	"github.com/spec-kit/eventflow/internal/shell"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

// EventsHandler serves event creation and registration posts.
type EventsHandler struct {
	logger *zap.Logger
}

// NewEventsHandler constructs handler.
func NewEventsHandler(logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{logger: logger}
}

// Create handles POST /events.
func (h *EventsHandler) Create(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var form dto.EventForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	if err := dto.Validate(&form); err != nil {
		return err
	}

	err = principal.Shell.AddEvent(c.UserContext(), shell.EventDraft{
		Name:        form.Name,
		Date:        form.Date,
		Location:    form.Location,
		Description: form.Description,
		Price:       form.Price,
	})
	if err != nil {
		h.logger.Info("add event failed", zap.String("session", principal.SessionID), zap.Error(err))
	}
	return redirectHome(c)
}

// Register handles POST /events/:id/register for the signed-in user.
func (h *EventsHandler) Register(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	user := principal.User()
	if user == nil {
		return apperrors.NewUnauthorized("please log in first")
	}

	if err := principal.Shell.RegisterForEvent(c.UserContext(), c.Params("id"), user.Username); err != nil {
		h.logger.Info("registration failed", zap.String("event_id", c.Params("id")), zap.Error(err))
	}
	return redirectHome(c)
}
