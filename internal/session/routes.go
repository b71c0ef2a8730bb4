package session

import (
	"strings"

	"ideabridge.org/internal/market"
)

// Route is one entry of the navigation table.
type Route struct {
	Path      string
	Protected bool
}

// Routes lists every navigable page. ":id" matches one path segment.
var Routes = []Route{
	{Path: "/"},
	{Path: "/login"},
	{Path: "/signup"},
	{Path: "/investor/dashboard", Protected: true},
	{Path: "/generator/dashboard", Protected: true},
	{Path: "/admin/dashboard", Protected: true},
	{Path: "/expressions", Protected: true},
	{Path: "/my-interests", Protected: true},
	{Path: "/idea/:id", Protected: true},
}

const (
	LandingRoute = "/"
	LoginRoute   = "/login"
)

// Lookup finds the route matching path.
func Lookup(path string) (Route, bool) {
	got := splitPath(path)
	for _, r := range Routes {
		want := splitPath(r.Path)
		if len(want) != len(got) {
			continue
		}
		match := true
		for i := range want {
			if want[i] != ":id" && want[i] != got[i] {
				match = false
				break
			}
		}
		if match {
			return r, true
		}
	}
	return Route{}, false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Guard decides where a navigation to path lands. Unknown paths go to the
// landing page; protected ones without a session go to the login page and
// report ErrUnauthenticated.
func (s *Session) Guard(path string) (string, error) {
	r, ok := Lookup(path)
	if !ok {
		return LandingRoute, nil
	}
	if r.Protected && !s.Authenticated() {
		return LoginRoute, ErrUnauthenticated
	}
	return path, nil
}

// DashboardRoute is where a user lands after login or signup.
func DashboardRoute(role market.Role) string {
	switch role {
	case market.RoleInvestor:
		return "/investor/dashboard"
	case market.RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/generator/dashboard"
	}
}
