package session

// Decision is the outcome of a route guard
type Decision int

const (
	// Allow renders the page
	Allow Decision = iota
	// Block renders nothing while the session is loading
	Block
	// RedirectLogin sends unauthenticated users to the login page
	RedirectLogin
	// RedirectLanding sends users without the required role to the landing page
	RedirectLanding
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Block:
		return "block"
	case RedirectLogin:
		return "redirect-login"
	case RedirectLanding:
		return "redirect-landing"
	default:
		return "unknown"
	}
}

// Guard decides whether a protected page may render
func Guard(state State, s Session, requireRoot bool) Decision {
	switch state {
	case StateLoading:
		return Block
	case StateAuthenticated:
	default:
		return RedirectLogin
	}
	if requireRoot && !s.Roles.IsRoot() {
		return RedirectLanding
	}
	return Allow
}
