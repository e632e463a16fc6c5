// Package views selects and renders the screen for a shell snapshot.
package views

import (
	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/shell"
)

// View names one of the five screens.
type View string

const (
	ViewHome           View = "home"
	ViewLogin          View = "login"
	ViewSignup         View = "signup"
	ViewUserDashboard  View = "user_dashboard"
	ViewAdminDashboard View = "admin_dashboard"
)

// All lists every view.
var All = []View{ViewHome, ViewLogin, ViewSignup, ViewUserDashboard, ViewAdminDashboard}

// Route maps a page selector to its view. Unknown pages render Home.
func Route(page domain.Page) View {
	switch page {
	case domain.PageLogin:
		return ViewLogin
	case domain.PageSignup:
		return ViewSignup
	case domain.PageUserDashboard:
		return ViewUserDashboard
	case domain.PageAdminDashboard:
		return ViewAdminDashboard
	default:
		return ViewHome
	}
}

// Resolve routes the snapshot's page and falls back to Home when the current
// user may not see it: dashboards need a user (the admin one an admin), and
// login and signup are for anonymous visitors only.
func Resolve(st shell.State) View {
	view := Route(st.CurrentPage)
	user := st.CurrentUser
	switch view {
	case ViewAdminDashboard:
		if user == nil || user.Role != domain.RoleAdmin {
			return ViewHome
		}
	case ViewUserDashboard:
		if user == nil {
			return ViewHome
		}
	case ViewLogin, ViewSignup:
		if user != nil {
			return ViewHome
		}
	}
	return view
}
