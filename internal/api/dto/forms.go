package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

// LoginForm is posted by the Login view.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// SignupForm is posted by the Signup view.
type SignupForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Role     string `form:"role" validate:"omitempty,oneof=attendee organizer"`
}

// ConfirmForm carries the emailed verification code. The email falls back to
// the pending confirmation held by the session.
type ConfirmForm struct {
	Email string `form:"email" validate:"omitempty,email"`
	Code  string `form:"code" validate:"required"`
}

// EventForm is posted by the Add Event form. Price stays raw text; the shell
// applies the price policy.
type EventForm struct {
	Name        string `form:"eventName" validate:"required"`
	Date        string `form:"eventDate" validate:"required"`
	Location    string `form:"eventLocation" validate:"required"`
	Description string `form:"eventDescription"`
	Price       string `form:"eventPrice"`
}

// IssueTicketForm optionally names the QR code id of a new ticket.
type IssueTicketForm struct {
	QRCodeID string `form:"qrCodeId"`
}

var validate = validator.New()

// fieldLabels names form fields in messages.
var fieldLabels = map[string]string{
	"Email":    "email",
	"Password": "password",
	"Role":     "role",
	"Code":     "confirmation code",
	"Name":     "event name",
	"Date":     "date",
	"Location": "location",
}

// Validate checks form against its struct tags and returns a validation
// DomainError describing the first failures.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid form", nil)
	}

	msgs := make([]string, 0, len(verrs))
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		msgs = append(msgs, msg)
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; "), details)
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = strings.ToLower(fe.Field())
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
