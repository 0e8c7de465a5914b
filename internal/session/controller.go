package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/accesspanel/accesspanel/client"
	"github.com/accesspanel/accesspanel/internal/credstore"
)

// Controller is the single writer of session state. It keeps the
// in-memory Session and the credential store in sync and pushes the
// current token/tenant into the API client it owns.
type Controller struct {
	api   *client.Client
	creds credstore.Store
	log   *logrus.Logger

	mu   sync.Mutex
	sess Session
	// gen is bumped by every login/logout. A validation started under an
	// older generation discards its result instead of applying it to a
	// session it no longer describes.
	gen uint64
	sf  singleflight.Group
}

// LoginOutcome is returned by Login so the caller can pick the
// post-login destination without re-reading shared state.
type LoginOutcome struct {
	Tenants          []client.Tenant
	SelectedTenantID string
}

// NewController creates a Controller around the given API client and
// credential store. The session starts in the bootstrapping phase.
func NewController(api *client.Client, creds credstore.Store, log *logrus.Logger) *Controller {
	return &Controller{
		api:   api,
		creds: creds,
		log:   log,
		sess:  Session{IsBootstrapping: true},
	}
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.sess
	if c.sess.Tenants != nil {
		snap.Tenants = make([]client.Tenant, len(c.sess.Tenants))
		copy(snap.Tenants, c.sess.Tenants)
	}
	if c.sess.User != nil {
		u := *c.sess.User
		snap.User = &u
	}
	return snap
}

// Bootstrap resumes a persisted session, once, at startup. With no
// persisted token it settles into the unauthenticated phase. With one,
// it validates the token against the server; any failure (expired
// token, network error) forces a full logout rather than leaving an
// ambiguous session authenticated. Failed bootstraps are not retried.
func (c *Controller) Bootstrap(ctx context.Context) error {
	token, ok := c.creds.Get(credstore.KeySessionToken)
	if !ok {
		c.mu.Lock()
		c.sess.IsBootstrapping = false
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.sess.Token = token
	c.api.SetToken(token)
	c.mu.Unlock()

	err := c.validate(ctx)

	c.mu.Lock()
	c.sess.IsBootstrapping = false
	c.mu.Unlock()
	return err
}

// Refresh re-validates the current session, e.g. after an external
// permission change. Failures force a logout, same as Bootstrap.
// Concurrent refreshes share one round-trip. Without a token it is a
// no-op.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	token := c.sess.Token
	c.mu.Unlock()
	if token == "" {
		return nil
	}
	return c.validate(ctx)
}

// Login exchanges credentials for a session. On success the token is
// stored in memory and in the credential store, the membership list is
// populated, and a sole tenant is auto-selected. The server's rejection
// message is surfaced verbatim as an AuthenticationError.
func (c *Controller) Login(ctx context.Context, email, password string) (*LoginOutcome, error) {
	res, err := c.api.Auth.Login(ctx, email, password)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, &AuthenticationError{Message: apiErr.Message}
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	u := res.User
	c.sess.Token = res.Token
	c.sess.User = &u
	c.sess.Tenants = res.Tenants
	c.sess.IsBootstrapping = false
	c.api.SetToken(res.Token)
	if err := c.creds.Set(credstore.KeySessionToken, res.Token); err != nil {
		c.log.WithError(err).Warn("failed to persist session token")
	}

	sel := ""
	if len(res.Tenants) == 1 {
		sel = res.Tenants[0].ID
	}
	c.setSelectionLocked(sel)

	return &LoginOutcome{Tenants: res.Tenants, SelectedTenantID: sel}, nil
}

// Logout clears the session, synchronously and unconditionally. It
// never fails: credential store errors are logged and swallowed.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.logoutLocked()
}

// SelectTenant sets the tenant the session operates against, in memory
// and in the credential store. Ids outside the current membership list
// are rejected with ErrUnknownTenant, keeping the no-dangling-selection
// invariant enforceable here alone.
func (c *Controller) SelectTenant(tenantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sess.hasTenant(tenantID) {
		return ErrUnknownTenant
	}
	c.setSelectionLocked(tenantID)
	return nil
}

// validate runs one "who am I" round-trip and applies the result, unless
// the session changed generation while the call was in flight.
func (c *Controller) validate(ctx context.Context) error {
	c.mu.Lock()
	start := c.gen
	c.mu.Unlock()

	v, err, _ := c.sf.Do("validate", func() (any, error) {
		return c.api.Auth.Me(ctx)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != start {
		return nil
	}
	if err != nil {
		c.log.WithError(err).Info("session validation failed, logging out")
		c.logoutLocked()
		return &SessionInvalidError{cause: err}
	}
	c.applyValidatedLocked(v.(*client.MeResult))
	return nil
}

// applyValidatedLocked installs a validated identity and membership
// list, then resolves the tenant selection: a sole tenant is always
// auto-selected (overriding any stored value), a persisted selection is
// restored only while it still matches a membership, and anything else
// is dropped so the UI forces an explicit choice.
func (c *Controller) applyValidatedLocked(me *client.MeResult) {
	u := me.User
	c.sess.User = &u
	c.sess.Tenants = me.Tenants

	sel := c.sess.SelectedTenantID
	if sel == "" {
		if v, ok := c.creds.Get(credstore.KeySelectedTenantID); ok {
			sel = v
		}
	}
	switch {
	case len(me.Tenants) == 1:
		sel = me.Tenants[0].ID
	case sel != "" && !c.sess.hasTenant(sel):
		sel = ""
	}
	c.setSelectionLocked(sel)
}

// setSelectionLocked mirrors the tenant selection into memory, the API
// client, and the credential store.
func (c *Controller) setSelectionLocked(sel string) {
	c.sess.SelectedTenantID = sel
	c.api.SetTenant(sel)

	var err error
	if sel == "" {
		err = c.creds.Clear(credstore.KeySelectedTenantID)
	} else {
		err = c.creds.Set(credstore.KeySelectedTenantID, sel)
	}
	if err != nil {
		c.log.WithError(err).Warn("failed to persist tenant selection")
	}
}

// logoutLocked wipes token, identity, memberships, and selection from
// memory, the API client, and the credential store in one step.
func (c *Controller) logoutLocked() {
	c.sess.Token = ""
	c.sess.User = nil
	c.sess.Tenants = nil
	c.sess.SelectedTenantID = ""
	c.api.ClearCredentials()

	if err := c.creds.Clear(credstore.KeySessionToken); err != nil {
		c.log.WithError(err).Warn("failed to clear persisted token")
	}
	if err := c.creds.Clear(credstore.KeySelectedTenantID); err != nil {
		c.log.WithError(err).Warn("failed to clear persisted tenant selection")
	}
}
