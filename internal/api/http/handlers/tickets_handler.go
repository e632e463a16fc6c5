package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/api/dto"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

// TicketsHandler serves the admin ticket actions.
type TicketsHandler struct {
	logger *zap.Logger
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(logger *zap.Logger) *TicketsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketsHandler{logger: logger}
}

// Issue handles POST /registrations/:id/tickets.
func (h *TicketsHandler) Issue(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var form dto.IssueTicketForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	if err := principal.Shell.IssueTicket(c.UserContext(), c.Params("id"), form.QRCodeID); err != nil {
		h.logger.Info("issue ticket failed", zap.String("registration_id", c.Params("id")), zap.Error(err))
	}
	return redirectHome(c)
}

// Scan handles POST /tickets/:id/scan.
func (h *TicketsHandler) Scan(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	if err := principal.Shell.MarkTicketScanned(c.UserContext(), c.Params("id")); err != nil {
		h.logger.Info("scan ticket failed", zap.String("ticket_id", c.Params("id")), zap.Error(err))
	}
	return redirectHome(c)
}
