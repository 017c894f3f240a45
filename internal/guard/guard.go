// Package guard decides what a role-gated view shows for the current
// session.
package guard

import "storefront/internal/auth"

// Well-known destinations.
const (
	LoginPath           = "/login"
	SellerDashboardPath = "/seller/dashboard"
	AdminDashboardPath  = "/admin/dashboard"
	DefaultRedirectPath = "/"
)

// Kind is the outcome of a decision.
type Kind int

const (
	ShowLoading Kind = iota
	Render
	Redirect
)

func (k Kind) String() string {
	switch k {
	case ShowLoading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Input is everything a decision depends on.
type Input struct {
	// User is nil when nobody is signed in.
	User         *auth.User
	AllowedRoles []auth.Role
	// RedirectPath defaults to DefaultRedirectPath.
	RedirectPath string
	Loading      bool
	// Location is the path that was requested.
	Location string
}

// Decision is what to do with the guarded view. From is set on redirects
// to the login view so the user can be sent back afterwards.
type Decision struct {
	Kind Kind
	Path string
	From string
}

// Decide evaluates the rules in order; the first match wins.
func Decide(in Input) Decision {
	if in.Loading {
		return Decision{Kind: ShowLoading}
	}
	if in.User == nil {
		return Decision{Kind: Redirect, Path: LoginPath, From: in.Location}
	}
	for _, r := range in.AllowedRoles {
		if r == in.User.Role {
			return Decision{Kind: Render}
		}
	}
	switch in.User.Role {
	case auth.RoleSeller:
		return Decision{Kind: Redirect, Path: SellerDashboardPath}
	case auth.RoleAdmin:
		return Decision{Kind: Redirect, Path: AdminDashboardPath}
	}
	path := in.RedirectPath
	if path == "" {
		path = DefaultRedirectPath
	}
	return Decision{Kind: Redirect, Path: path}
}
