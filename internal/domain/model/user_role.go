//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// UserRole is a row in the role-lookup table. Identities without a row are
// treated as plain users; the resolver owns that default, not this type.
type UserRole struct {
	IdentityID string    `json:"identity_id" db:"identity_id"`
	Role       string    `json:"role"        db:"role"`
	GrantedBy  *string   `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}
