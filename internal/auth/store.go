// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/quangdang46/learnio/internal/platform/sec"
)

// ErrSessionNotFound is returned by [SessionCache] implementations when no
// snapshot exists for the user ID. A syntactically valid credential whose
// snapshot is absent must be treated as logged out.
var ErrSessionNotFound = errors.New("auth: session not found")

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Description: The users table carries a unique index on email; a
		duplicate insert surfaces as apperr.Conflict.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		MarkActivated flips the account's activation flag to true.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkActivated(context context.Context, userID string) error
}

// # Session Cache Access

// SessionCache defines the contract for the volatile logged-in snapshot store.
//
// The cache is keyed by user ID and holds a sanitized [sec.Identity]. Its
// presence IS the logged-in state: deleting the entry logs the user out
// everywhere, regardless of any credentials still held by clients.
type SessionCache interface {

	/*
		Put stores (or overwrites) the snapshot for identity.UserID with a TTL.

		Parameters:
		  - context: context.Context
		  - identity: *sec.Identity
		  - ttl: time.Duration

		Returns:
		  - error: Serialization or connectivity failures
	*/
	Put(context context.Context, identity *sec.Identity, ttl time.Duration) error

	/*
		Get retrieves the snapshot for a user ID.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - *sec.Identity: Cached snapshot
		  - error: ErrSessionNotFound, or connectivity failures
	*/
	Get(context context.Context, userID string) (*sec.Identity, error)

	/*
		Touch re-arms the TTL of an existing snapshot without rewriting it.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: ErrSessionNotFound, or connectivity failures
	*/
	Touch(context context.Context, userID string, ttl time.Duration) error

	/*
		Delete removes the snapshot for a user ID. Deleting an absent entry
		is not an error (idempotent logout).

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Connectivity failures
	*/
	Delete(context context.Context, userID string) error
}

// # Outbound Delivery

// EmailSender defines the contract for delivering the activation code.
type EmailSender interface {

	/*
		SendActivation delivers the activation code to a registered address.

		Parameters:
		  - context: context.Context
		  - email: string
		  - name: string
		  - code: string

		Returns:
		  - error: Delivery failures
	*/
	SendActivation(context context.Context, email, name, code string) error
}
