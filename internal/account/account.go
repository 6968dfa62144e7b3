// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

/*
Package account implements profile management on top of the auth domain.

It reuses the [auth.User] entity as its aggregate root and adds profile
reads, partial updates, avatar storage, and administrative user management.

# Architecture

The package depends on auth for the entity and the session cache contract;
profile mutations are mirrored into the session cache so the authorization
guard sees fresh attributes without waiting for the next login.
*/
package account

import (
	"context"

	"github.com/quangdang46/learnio/internal/auth"
)

// # Data Access Contracts

// AccountRepository defines the persistent data access contract for profiles.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *auth.User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Update persists changes to mutable profile fields.

		Parameters:
		  - context: context.Context
		  - user: *auth.User

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		List returns all accounts, newest first.

		Parameters:
		  - context: context.Context

		Returns:
		  - []*auth.User: All registered accounts
		  - error: Database retrieval failures
	*/
	List(context context.Context) ([]*auth.User, error)

	/*
		Delete permanently removes an account row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	Delete(context context.Context, id string) error
}

// AvatarStorage defines the contract for storing user avatar images.
type AvatarStorage interface {

	/*
		Upload stores an avatar payload and returns its public URL.

		Parameters:
		  - context: context.Context
		  - key: string
		  - contentType: string
		  - payload: []byte

		Returns:
		  - string: Public URL of the stored object
		  - error: Backend failures
	*/
	Upload(context context.Context, key string, contentType string, payload []byte) (string, error)

	/*
		Delete removes an avatar object. Idempotent.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - error: Backend failures
	*/
	Delete(context context.Context, key string) error
}

// # Constraints

const (
	// MaxAvatarBytes bounds the avatar upload size (2 MiB).
	MaxAvatarBytes = 2 << 20

	// MaxNameLength bounds the display name.
	MaxNameLength = 100
)

// # Field Identifiers

const (
	FieldName      = "name"
	FieldAvatar    = "avatar"
	FieldAvatarURL = "avatar_url"
	FieldMessage   = "message"
)
