// Package session owns the authenticated session: the bearer token, the
// user's tenant memberships, the selected tenant, and the navigation
// guard derived from them. All mutation goes through the Controller.
package session

import "github.com/accesspanel/accesspanel/client"

// Phase is the derived lifecycle state of a session.
type Phase int

const (
	// PhaseBootstrapping covers process start until the first validation
	// round-trip completes.
	PhaseBootstrapping Phase = iota
	// PhaseUnauthenticated means no token is held.
	PhaseUnauthenticated
	// PhaseAuthenticatedNoTenant means a token is held but no tenant is
	// selected yet.
	PhaseAuthenticatedNoTenant
	// PhaseAuthenticatedWithTenant means tenant-scoped screens may load.
	PhaseAuthenticatedWithTenant
)

func (p Phase) String() string {
	switch p {
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticatedNoTenant:
		return "authenticated (no tenant)"
	case PhaseAuthenticatedWithTenant:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is an immutable snapshot of the authoritative session state.
type Session struct {
	// Token is the opaque bearer credential; empty means unauthenticated.
	Token string
	// User is populated once the token has been validated at least once.
	User *client.User
	// Tenants are the memberships of the signed-in user, server order.
	Tenants []client.Tenant
	// SelectedTenantID, if set, is the id of an element of Tenants.
	SelectedTenantID string
	// IsBootstrapping is true until the first validation completes.
	IsBootstrapping bool
}

// Phase derives the lifecycle phase of this snapshot.
func (s Session) Phase() Phase {
	switch {
	case s.IsBootstrapping:
		return PhaseBootstrapping
	case s.Token == "":
		return PhaseUnauthenticated
	case s.SelectedTenantID == "":
		return PhaseAuthenticatedNoTenant
	default:
		return PhaseAuthenticatedWithTenant
	}
}

// SelectedTenant returns the membership matching SelectedTenantID.
func (s Session) SelectedTenant() (client.Tenant, bool) {
	for _, t := range s.Tenants {
		if t.ID == s.SelectedTenantID {
			return t, true
		}
	}
	return client.Tenant{}, false
}

// hasTenant reports whether id is one of the session's memberships.
func (s Session) hasTenant(id string) bool {
	for _, t := range s.Tenants {
		if t.ID == id {
			return true
		}
	}
	return false
}
