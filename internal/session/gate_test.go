package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/hellforge/tradepost/internal/domain/auth"
)

func TestEvaluate(t *testing.T) {
	signedIn := &domainauth.Identity{UserID: "u1"}

	tests := []struct {
		name     string
		snap     Snapshot
		required domainauth.Role
		want     Decision
	}{
		{
			name:     "loading wins over everything",
			snap:     Snapshot{Identity: signedIn, Role: domainauth.RoleAdmin, Loading: true},
			required: domainauth.RoleAdmin,
			want:     DecisionLoading,
		},
		{
			name:     "signed out redirects to login",
			snap:     Snapshot{Role: domainauth.RoleUser},
			required: domainauth.RoleUser,
			want:     DecisionLoginRedirect,
		},
		{
			name:     "signed out with admin requirement still goes to login",
			snap:     Snapshot{},
			required: domainauth.RoleAdmin,
			want:     DecisionLoginRedirect,
		},
		{
			name:     "user blocked from admin area",
			snap:     Snapshot{Identity: signedIn, Role: domainauth.RoleUser},
			required: domainauth.RoleAdmin,
			want:     DecisionForbiddenRedirect,
		},
		{
			name:     "moderator blocked from admin area",
			snap:     Snapshot{Identity: signedIn, Role: domainauth.RoleModerator},
			required: domainauth.RoleAdmin,
			want:     DecisionForbiddenRedirect,
		},
		{
			name:     "admin satisfies moderator requirement",
			snap:     Snapshot{Identity: signedIn, Role: domainauth.RoleAdmin},
			required: domainauth.RoleModerator,
			want:     DecisionAllow,
		},
		{
			name:     "exact role match allows",
			snap:     Snapshot{Identity: signedIn, Role: domainauth.RoleModerator},
			required: domainauth.RoleModerator,
			want:     DecisionAllow,
		},
		{
			name:     "empty requirement allows any signed-in user",
			snap:     Snapshot{Identity: signedIn, Role: domainauth.RoleUser},
			required: "",
			want:     DecisionAllow,
		},
		{
			name:     "unknown role satisfies nothing",
			snap:     Snapshot{Identity: signedIn, Role: domainauth.Role("superuser")},
			required: domainauth.RoleUser,
			want:     DecisionForbiddenRedirect,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.snap, tt.required))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "loading", DecisionLoading.String())
	assert.Equal(t, "login_redirect", DecisionLoginRedirect.String())
	assert.Equal(t, "forbidden_redirect", DecisionForbiddenRedirect.String())
	assert.Equal(t, "allow", DecisionAllow.String())
	assert.Equal(t, "unknown", Decision(99).String())
}
