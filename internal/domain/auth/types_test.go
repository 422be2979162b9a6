package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Role
		known    bool
	}{
		{name: "admin", input: "admin", expected: RoleAdmin, known: true},
		{name: "moderator", input: "moderator", expected: RoleModerator, known: true},
		{name: "user", input: "user", expected: RoleUser, known: true},
		{name: "empty collapses to user", input: "", expected: RoleUser, known: false},
		{name: "unknown collapses to user", input: "superadmin", expected: RoleUser, known: false},
		{name: "case sensitive", input: "Admin", expected: RoleUser, known: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, known := ParseRole(tt.input)
			assert.Equal(t, tt.expected, role)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestRole_Satisfies(t *testing.T) {
	assert.True(t, RoleAdmin.Satisfies(RoleUser))
	assert.True(t, RoleAdmin.Satisfies(RoleModerator))
	assert.True(t, RoleAdmin.Satisfies(RoleAdmin))

	assert.True(t, RoleModerator.Satisfies(RoleUser))
	assert.True(t, RoleModerator.Satisfies(RoleModerator))
	assert.False(t, RoleModerator.Satisfies(RoleAdmin))

	assert.True(t, RoleUser.Satisfies(RoleUser))
	assert.False(t, RoleUser.Satisfies(RoleModerator))
	assert.False(t, RoleUser.Satisfies(RoleAdmin))
}

func TestRole_Satisfies_UnknownRoles(t *testing.T) {
	// An unrecognized role never satisfies anything, and nothing satisfies it.
	assert.False(t, Role("superadmin").Satisfies(RoleUser))
	assert.False(t, Role("").Satisfies(RoleUser))
	assert.False(t, RoleAdmin.Satisfies(Role("owner")))
}

func TestSession_DerivedFlags(t *testing.T) {
	// IsAdmin implies IsModerator for every role value.
	for _, role := range []Role{RoleAdmin, RoleModerator, RoleUser, Role("bogus"), Role("")} {
		s := Session{Role: role}
		if s.IsAdmin() {
			assert.True(t, s.IsModerator(), "admin must imply moderator for role %q", role)
		}
	}

	assert.True(t, Session{Role: RoleAdmin}.IsAdmin())
	assert.True(t, Session{Role: RoleAdmin}.IsModerator())
	assert.False(t, Session{Role: RoleModerator}.IsAdmin())
	assert.True(t, Session{Role: RoleModerator}.IsModerator())
	assert.False(t, Session{Role: RoleUser}.IsAdmin())
	assert.False(t, Session{Role: RoleUser}.IsModerator())
}

func TestSession_Identity(t *testing.T) {
	s := Session{
		ID:       "sess-1",
		UserID:   "u1",
		Username: "sorc99",
		Email:    "sorc99@example.com",
		Role:     RoleUser,
	}
	id := s.Identity()
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "sorc99", id.Username)
	assert.Equal(t, "sorc99@example.com", id.Email)
}
