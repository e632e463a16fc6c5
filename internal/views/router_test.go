package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/shell"
)

func TestRoute(t *testing.T) {
	tests := map[domain.Page]View{
		domain.PageHome:           ViewHome,
		domain.PageLogin:          ViewLogin,
		domain.PageSignup:         ViewSignup,
		domain.PageUserDashboard:  ViewUserDashboard,
		domain.PageAdminDashboard: ViewAdminDashboard,
		"":                        ViewHome,
		"settings":                ViewHome,
	}
	for page, want := range tests {
		assert.Equal(t, want, Route(page), "page %q", page)
	}
}

func TestResolveGuards(t *testing.T) {
	attendee := &domain.User{Username: "fan", Role: domain.RoleAttendee}
	organizer := &domain.User{Username: "org", Role: domain.RoleOrganizer}
	admin := &domain.User{Username: "boss", Role: domain.RoleAdmin}

	tests := []struct {
		name string
		user *domain.User
		page domain.Page
		want View
	}{
		{"anonymous admin dashboard", nil, domain.PageAdminDashboard, ViewHome},
		{"organizer admin dashboard", organizer, domain.PageAdminDashboard, ViewHome},
		{"admin admin dashboard", admin, domain.PageAdminDashboard, ViewAdminDashboard},
		{"anonymous user dashboard", nil, domain.PageUserDashboard, ViewHome},
		{"attendee user dashboard", attendee, domain.PageUserDashboard, ViewUserDashboard},
		{"admin user dashboard", admin, domain.PageUserDashboard, ViewUserDashboard},
		{"anonymous login", nil, domain.PageLogin, ViewLogin},
		{"signed in login", attendee, domain.PageLogin, ViewHome},
		{"anonymous signup", nil, domain.PageSignup, ViewSignup},
		{"signed in signup", organizer, domain.PageSignup, ViewHome},
		{"unknown page", admin, "reports", ViewHome},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := shell.State{CurrentUser: tc.user, CurrentPage: tc.page}
			assert.Equal(t, tc.want, Resolve(st))
		})
	}
}
