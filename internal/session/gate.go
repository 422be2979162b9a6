package session

import domainauth "github.com/hellforge/tradepost/internal/domain/auth"

// Decision is the outcome of evaluating a snapshot against a required role.
type Decision int

const (
	// DecisionLoading means auth state is not settled yet; render nothing
	// and re-evaluate when the snapshot changes.
	DecisionLoading Decision = iota
	// DecisionLoginRedirect means no user is signed in.
	DecisionLoginRedirect
	// DecisionForbiddenRedirect means the user is signed in but their role
	// does not satisfy the requirement.
	DecisionForbiddenRedirect
	// DecisionAllow means the user may proceed.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionLoginRedirect:
		return "login_redirect"
	case DecisionForbiddenRedirect:
		return "forbidden_redirect"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Evaluate maps a snapshot to a gate decision. The checks are ordered:
// loading wins over everything, absence of identity wins over role checks.
// An empty required role means any signed-in user is allowed.
func Evaluate(snap Snapshot, required domainauth.Role) Decision {
	if snap.Loading {
		return DecisionLoading
	}
	if snap.Identity == nil {
		return DecisionLoginRedirect
	}
	if required == "" {
		return DecisionAllow
	}
	if !snap.Role.Satisfies(required) {
		return DecisionForbiddenRedirect
	}
	return DecisionAllow
}
