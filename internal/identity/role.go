package identity

import "github.com/spec-kit/eventflow/internal/domain"

// Group names that grant elevated roles.
const (
	GroupAdmins     = "Admins"
	GroupOrganizers = "Organizers"
)

// ResolveRole maps group claims to a role. Admins wins over Organizers;
// anything else is an attendee.
func ResolveRole(groups []string) domain.Role {
	var organizer bool
	for _, g := range groups {
		switch g {
		case GroupAdmins:
			return domain.RoleAdmin
		case GroupOrganizers:
			organizer = true
		}
	}
	if organizer {
		return domain.RoleOrganizer
	}
	return domain.RoleAttendee
}

// UserFromSession builds the transient user record for an authenticated session.
func UserFromSession(s *Session) *domain.User {
	if s == nil {
		return nil
	}
	return &domain.User{
		Username: s.Username,
		Email:    s.Email(),
		Role:     ResolveRole(s.Groups),
	}
}
