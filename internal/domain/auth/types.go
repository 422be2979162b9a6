package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Valid reports whether the role is one of the defined constants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole maps a stored string to a known Role. Unrecognized values
// collapse to RoleUser so a corrupt row can never grant elevated access.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleModerator, RoleUser:
		return Role(s), true
	default:
		return RoleUser, false
	}
}

// Satisfies reports whether a holder of this role meets the required role.
// Hierarchy: user < moderator < admin. Unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	levels := map[Role]int{
		RoleUser:      0,
		RoleModerator: 1,
		RoleAdmin:     2,
	}
	have, ok := levels[r]
	if !ok {
		return false
	}
	want, ok := levels[required]
	if !ok {
		return false
	}
	return have >= want
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (sub claim or row id)
	Username  string
	Email     string
	AvatarURL string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity returns the identity embedded in the session record.
func (s Session) Identity() Identity {
	return Identity{
		UserID:    s.UserID,
		Username:  s.Username,
		Email:     s.Email,
		AvatarURL: s.AvatarURL,
		ExpiresAt: s.ExpiresAt,
	}
}

// IsAdmin returns true if the session role is admin.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// IsModerator returns true for moderators and admins; admin capability is a
// strict superset of moderator capability.
func (s Session) IsModerator() bool { return s.Role == RoleModerator || s.Role == RoleAdmin }
