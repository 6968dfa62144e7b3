// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted platform access
	RoleAdmin Role = "admin"

	// Can publish and manage their own courses
	RoleInstructor Role = "instructor"

	// Default role for standard registered users
	RoleUser Role = "user"
)

// In reports whether the role is a member of the allowed set.
//
// Authorization is plain set membership, not a hierarchy: an admin is not
// implicitly allowed on instructor-only routes unless listed.
func (r Role) In(allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}

// # Caller Identity

// Identity is the sanitized caller snapshot attached to a request context by
// the authorization guard. It mirrors the session cache entry: the password
// hash is stripped before the snapshot ever reaches this type.
type Identity struct {
	UserID      string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	IsActivated bool   `json:"is_activated"`
}
