package session

// Well-known navigation entry points.
const (
	PathLogin        = "/login"
	PathSelectTenant = "/select-tenant"
	PathDefault      = "/app/members"
)

// Verdict is the outcome of a guard evaluation.
type Verdict int

const (
	// VerdictPending means the session is still bootstrapping; render a
	// neutral loading state and re-evaluate on the next session change.
	VerdictPending Verdict = iota
	// VerdictAllow admits the requested path.
	VerdictAllow
	// VerdictRedirect sends the user to RedirectTo instead.
	VerdictRedirect
)

// Decision is the result of guarding one navigation.
type Decision struct {
	Verdict    Verdict
	RedirectTo string
	// From carries the originally requested path on a login redirect so
	// the login screen can return the user there afterwards.
	From string
}

// Guard decides whether the given session may visit requestedPath. It
// is a pure function of its inputs and must be re-evaluated on every
// session change and every navigation.
func Guard(s Session, requestedPath string) Decision {
	switch {
	case s.IsBootstrapping:
		return Decision{Verdict: VerdictPending}
	case s.Token == "":
		return Decision{Verdict: VerdictRedirect, RedirectTo: PathLogin, From: requestedPath}
	case len(s.Tenants) > 1 && s.SelectedTenantID == "":
		return Decision{Verdict: VerdictRedirect, RedirectTo: PathSelectTenant}
	default:
		return Decision{Verdict: VerdictAllow}
	}
}
