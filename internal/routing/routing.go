// Package routing decides which view a path resolves to for the current
// session: whether to wait, redirect or render, and which dashboard a user
// gets.
package routing

import (
	"net/url"
	"strings"

	"foodrescue/internal/domain"
)

// Routes known to the client.
const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathForgotPassword = "/forgot-password"
	PathResetPassword  = "/reset-password"
	PathDashboard      = "/dashboard"
)

var public = map[string]bool{
	PathHome:           true,
	PathLogin:          true,
	PathRegister:       true,
	PathForgotPassword: true,
	PathResetPassword:  true,
}

var protected = map[string]bool{
	PathDashboard: true,
}

// SessionView is what the guard needs to know about the session.
// *session.Manager satisfies it.
type SessionView interface {
	Loading() bool
	IsAuthenticated() bool
}

// Action is the outcome of a guard decision.
type Action int

const (
	// Allow renders the requested path.
	Allow Action = iota
	// Wait renders a neutral placeholder until the session has restored.
	Wait
	// Redirect sends the user to Decision.Location.
	Redirect
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Action   Action
	Location string
	// From is the originally requested path, kept so login can return to it.
	From string
}

// Normalize strips query and trailing slash, keeping "/" intact.
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// IsProtected reports whether path requires an authenticated session.
func IsProtected(path string) bool {
	return protected[Normalize(path)]
}

// Known reports whether path is one of the client's routes.
func Known(path string) bool {
	p := Normalize(path)
	return public[p] || protected[p]
}

// Guard decides what to do with a navigation to path.
//
// Protected paths wait while the session is loading and redirect anonymous
// users to the login page, remembering where they were headed. Unknown paths
// redirect home.
func Guard(view SessionView, path string) Decision {
	p := Normalize(path)
	switch {
	case !Known(p):
		return Decision{Action: Redirect, Location: PathHome}
	case !protected[p]:
		return Decision{Action: Allow, Location: p}
	case view.Loading():
		return Decision{Action: Wait, Location: p}
	case !view.IsAuthenticated():
		return Decision{
			Action:   Redirect,
			Location: PathLogin + "?" + url.Values{"from": {p}}.Encode(),
			From:     p,
		}
	}
	return Decision{Action: Allow, Location: p}
}

// AfterLogin is where a successful sign-in lands: back where the user was
// headed when that was a known route, the dashboard otherwise.
func AfterLogin(from string) string {
	if from == "" {
		return PathDashboard
	}
	p := Normalize(from)
	if !Known(p) || p == PathLogin {
		return PathDashboard
	}
	return p
}

// Dashboard names the role view a user is shown.
type Dashboard string

const (
	DonorDashboard    Dashboard = "donor"
	NGODashboard      Dashboard = "ngo"
	AdminDashboard    Dashboard = "admin"
	RoleNotRecognized Dashboard = "role-not-recognized"
	LoadingUser       Dashboard = "loading-user"
)

// DashboardFor maps a user to their dashboard. A nil user is still loading;
// an unknown role gets a terminal "not recognized" view rather than an error.
func DashboardFor(user *domain.User) Dashboard {
	if user == nil {
		return LoadingUser
	}
	switch user.Role {
	case domain.RoleDonor:
		return DonorDashboard
	case domain.RoleNGO:
		return NGODashboard
	case domain.RoleAdmin:
		return AdminDashboard
	}
	return RoleNotRecognized
}
