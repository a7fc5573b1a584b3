// Package router decides, for every navigation, whether a screen renders,
// redirects elsewhere, or waits for the auth state to settle.
package router

import (
	"path"
	"strings"

	"clinic-console/internal/authz"
	"clinic-console/internal/model"
	"clinic-console/internal/state"
)

const (
	Root         = "/"
	Login        = "/login"
	Register     = "/register"
	Dashboard    = "/dashboard"
	Unauthorized = "/unauthorized"
)

type access int

const (
	protected access = iota
	guestOnly
	public
)

// Route is one screen. Roles, when set, must intersect the session's roles.
type Route struct {
	Path   string
	Screen string
	Roles  []model.Role
	access access
}

func (r Route) Public() bool { return r.access != protected }

var (
	admin        = []model.Role{model.RoleAdmin}
	doctor       = []model.Role{model.RoleDoctor}
	pharmacist   = []model.Role{model.RolePharmacist}
	receptionist = []model.Role{model.RoleReceptionist}
)

// The patient screens take any signed-in user: a session without a known
// role lands on the patient dashboard and must be allowed to see it.
var routes = []Route{
	{Path: Root, Screen: "home", access: guestOnly},
	{Path: Login, Screen: "login", access: guestOnly},
	{Path: Register, Screen: "register", access: guestOnly},
	{Path: Unauthorized, Screen: "unauthorized", access: public},
	{Path: Dashboard, Screen: "dashboard"},
	{Path: "/dashboard/admin", Screen: "admin", Roles: admin},
	{Path: "/dashboard/doctor", Screen: "doctor", Roles: doctor},
	{Path: "/dashboard/pharmacist", Screen: "pharmacist", Roles: pharmacist},
	{Path: "/dashboard/receptionist", Screen: "receptionist", Roles: receptionist},
	{Path: "/dashboard/patient", Screen: "patient"},
	{Path: "/dashboard/users", Screen: "users", Roles: admin},
	{Path: "/dashboard/reports", Screen: "reports", Roles: admin},
	{Path: "/dashboard/settings", Screen: "settings", Roles: admin},
	{Path: "/dashboard/patients", Screen: "patients", Roles: []model.Role{model.RoleDoctor, model.RoleReceptionist}},
	{Path: "/dashboard/appointments", Screen: "appointments", Roles: []model.Role{model.RoleDoctor, model.RoleReceptionist}},
	{Path: "/dashboard/prescriptions", Screen: "prescriptions", Roles: []model.Role{model.RoleDoctor, model.RolePharmacist}},
	{Path: "/dashboard/medicines", Screen: "medicines", Roles: pharmacist},
	{Path: "/dashboard/my-appointments", Screen: "my-appointments"},
	{Path: "/dashboard/my-prescriptions", Screen: "my-prescriptions"},
}

type Kind int

const (
	Loading Kind = iota
	Render
	Redirect
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not-found"
	}
	return "loading"
}

// Decision is the outcome of one navigation. Target is set for redirects,
// Route for renders.
type Decision struct {
	Kind   Kind
	Path   string
	Target string
	Route  Route
}

// AuthState is what the guard reads from the auth store.
type AuthState interface {
	Status() state.AuthStatus
	Session() (model.Session, bool)
}

type Guard struct {
	auth   AuthState
	routes map[string]Route
}

func NewGuard(a AuthState) *Guard {
	g := &Guard{auth: a, routes: make(map[string]Route, len(routes))}
	for _, r := range routes {
		g.routes[r.Path] = r
	}
	return g
}

// Lookup finds the route for p after normalising it.
func (g *Guard) Lookup(p string) (Route, bool) {
	r, ok := g.routes[Clean(p)]
	return r, ok
}

func Clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Resolve evaluates one navigation to p. It never remembers the attempted
// destination: an unauthenticated visit lands on the login screen and
// stays there.
func (g *Guard) Resolve(p string) Decision {
	p = Clean(p)
	r, ok := g.routes[p]
	if !ok {
		return Decision{Kind: NotFound, Path: p}
	}
	if r.access == public {
		return Decision{Kind: Render, Path: p, Route: r}
	}

	switch g.auth.Status() {
	case state.Authenticated:
	case state.Unauthenticated:
		if r.access == guestOnly && p != Root {
			return Decision{Kind: Render, Path: p, Route: r}
		}
		return redirect(p, Login)
	default:
		return Decision{Kind: Loading, Path: p}
	}

	sess, _ := g.auth.Session()
	if r.access == guestOnly || p == Dashboard {
		return redirect(p, authz.DashboardRoute(sess))
	}
	if !authz.HasAnyRole(sess, r.Roles...) {
		return redirect(p, Unauthorized)
	}
	return Decision{Kind: Render, Path: p, Route: r}
}

func redirect(from, to string) Decision {
	return Decision{Kind: Redirect, Path: from, Target: to}
}
