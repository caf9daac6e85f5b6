package authz

import (
	"sync"

	"go.uber.org/zap"
)

// SessionState is the lifecycle state of a guard.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticated
)

// String returns the state name.
func (s SessionState) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Decision is the outcome of a route authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
	RedirectToLogin
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	default:
		return "deny"
	}
}

// Guard holds the current session and answers route and role questions about
// it. Only EstablishSession and TerminateSession mutate it.
type Guard struct {
	mu       sync.RWMutex
	store    SessionStore
	logger   *zap.Logger
	state    SessionState
	identity Identity
	bundle   *Bundle
}

// NewGuard creates a guard and resumes any bundle persisted in store. A resumed
// bundle is trusted as-is; its token and expiry are not re-checked here.
func NewGuard(store SessionStore, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	g := &Guard{store: store, logger: logger}
	g.resume()
	return g
}

func (g *Guard) resume() {
	bundle, err := g.store.Load()
	if err != nil {
		g.logger.Warn("discarding unreadable session bundle", zap.Error(err))
		g.discard()
		return
	}
	if bundle == nil {
		return
	}
	identity, err := bundle.Resolve()
	if err != nil {
		g.logger.Warn("discarding invalid session bundle", zap.Error(err))
		g.discard()
		return
	}
	g.state = StateAuthenticated
	g.identity = identity
	g.bundle = bundle
}

func (g *Guard) discard() {
	if err := g.store.Clear(); err != nil {
		g.logger.Warn("failed to clear session store", zap.Error(err))
	}
}

// EstablishSession validates bundle, stores the identity and persists the
// bundle. On failure the previous session is left untouched.
func (g *Guard) EstablishSession(bundle *Bundle) (Identity, error) {
	identity, err := bundle.Resolve()
	if err != nil {
		return Identity{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	persisted := bundle.clone()
	if err := g.store.Save(persisted); err != nil {
		return Identity{}, err
	}
	g.state = StateAuthenticated
	g.identity = identity
	g.bundle = persisted
	g.logger.Debug("session established", zap.Int64("user_id", identity.ID), zap.Strings("roles", identity.Roles.Strings()))
	return identity, nil
}

// TerminateSession clears the session. It is idempotent and never fails.
func (g *Guard) TerminateSession() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateAuthenticated {
		g.logger.Debug("session terminated", zap.Int64("user_id", g.identity.ID))
	}
	g.state = StateAnonymous
	g.identity = Identity{}
	g.bundle = nil
	g.discard()
}

// State returns the lifecycle state.
func (g *Guard) State() SessionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// CurrentIdentity returns the identity and true, or false when anonymous.
func (g *Guard) CurrentIdentity() (Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != StateAuthenticated {
		return Identity{}, false
	}
	return g.identity, true
}

// Bundle returns a copy of the active bundle, or nil when anonymous.
func (g *Guard) Bundle() *Bundle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bundle.clone()
}

// HasRole is false when anonymous.
func (g *Guard) HasRole(role Role) bool {
	identity, ok := g.CurrentIdentity()
	return ok && identity.HasRole(role)
}

// HasPermission is false when anonymous.
func (g *Guard) HasPermission(code string) bool {
	identity, ok := g.CurrentIdentity()
	return ok && identity.HasPermission(code)
}

// AuthorizeRoute decides whether the current session satisfies requirement.
func (g *Guard) AuthorizeRoute(requirement Requirement) Decision {
	identity, ok := g.CurrentIdentity()
	if !ok {
		if requirement == RequireAnonymous {
			return Allow
		}
		return RedirectToLogin
	}

	switch requirement {
	case RequireAnonymous:
		return Deny
	case RequireAuthenticated:
		return Allow
	}

	role, _ := requirement.Role()
	if identity.HasRole(role) {
		return Allow
	}
	return Deny
}

// AuthorizePath resolves path against the route table and authorizes it.
func (g *Guard) AuthorizePath(path string) (Route, Decision) {
	route, _ := Match(path)
	return route, g.AuthorizeRoute(route.Requirement)
}

// DefaultLandingRoute picks the landing page for the current roles.
func (g *Guard) DefaultLandingRoute() string {
	identity, ok := g.CurrentIdentity()
	if !ok {
		return PathLogin
	}
	return LandingRouteFor(identity.Roles)
}

// LandingRouteFor applies the fixed priority ADMIN > MAESTRO > PADRE > login.
func LandingRouteFor(roles RoleSet) string {
	switch {
	case roles.Has(RoleAdmin):
		return PathAdminHome
	case roles.Has(RoleTeacher):
		return PathTeacherHome
	case roles.Has(RoleParent):
		return PathParentHome
	default:
		return PathLogin
	}
}

// Actor pairs the current identity with its linked students. The zero Actor is
// returned when anonymous.
func (g *Guard) Actor(students StudentSet) Actor {
	identity, ok := g.CurrentIdentity()
	if !ok {
		return Actor{}
	}
	return NewActor(identity, students)
}
