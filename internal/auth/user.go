// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

/*
Package auth implements the user identity and session lifecycle layer.

It defines the core domain entity (User) and the logic for registration,
email activation, authentication, and session management.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
transport dependencies and encapsulates all business rules related to user
identity and login state.
*/
package auth

import (
	"time"

	"github.com/quangdang46/learnio/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Learnio platform.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.Role  `json:"role"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	IsActivated  bool      `json:"is_activated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns the sanitized caller snapshot for this user.
//
// This is the ONLY projection that may be written to the session cache or
// attached to a request context: it is built field-by-field, so the password
// hash can never leak into it by accident.
func (user *User) Identity() *sec.Identity {
	return &sec.Identity{
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		AvatarURL:   user.AvatarURL,
		IsActivated: user.IsActivated,
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldActivationToken = "activation_token"
	FieldActivationCode  = "activation_code"
	FieldAccessToken     = "access_token"
	FieldRefreshToken    = "refresh_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
