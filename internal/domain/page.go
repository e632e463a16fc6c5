package domain

// Page names one of the mutually exclusive screens.
type Page string

const (
	PageHome           Page = "home"
	PageLogin          Page = "login"
	PageSignup         Page = "signup"
	PageUserDashboard  Page = "user-dashboard"
	PageAdminDashboard Page = "admin-dashboard"
)

// DashboardFor returns the landing page for a signed-in user with the given role.
func DashboardFor(role Role) Page {
	if role == RoleAdmin {
		return PageAdminDashboard
	}
	return PageUserDashboard
}
