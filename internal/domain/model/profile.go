//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const maxUsernameLen = 32

// Username rules: 3-32 chars, alphanumeric plus underscore and hyphen.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// Profile is the public-facing record a user maintains about themselves.
// IdentityID matches the auth provider's stable user identifier.
type Profile struct {
	IdentityID string    `json:"identity_id" db:"identity_id"`
	Username   string    `json:"username"    db:"username"`
	Email      string    `json:"email"       db:"email"`
	AvatarURL  *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio        *string   `json:"bio,omitempty"        db:"bio"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// UpdateProfileRequest holds optional fields for updating a profile.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// Validate checks provided fields only.
func (r UpdateProfileRequest) Validate() error {
	if r.Username != nil && !usernameRe.MatchString(*r.Username) {
		return errors.New("username must be 3-32 characters: letters, digits, underscore, hyphen")
	}
	if r.AvatarURL != nil {
		trimmed := strings.TrimSpace(*r.AvatarURL)
		if trimmed != "" && !strings.HasPrefix(trimmed, "https://") {
			return errors.New("avatar URL must use https")
		}
	}
	if r.Bio != nil && utf8.RuneCountInString(*r.Bio) > maxOfferNoteLen {
		return errors.New("bio exceeds maximum length")
	}
	return nil
}
