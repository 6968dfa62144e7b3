// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quangdang46/learnio/internal/auth"
	"github.com/quangdang46/learnio/internal/platform/sec"
)

// # Service Layer

// Service orchestrates business logic for user profiles.
//
// It ensures that profile mutations reach both persistent storage and the
// session cache, so the authorization guard always works from fresh
// attributes.
type Service struct {
	accountRepository AccountRepository
	sessionCache      auth.SessionCache
	avatarStorage     AvatarStorage
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	accountRepo AccountRepository,
	sessions auth.SessionCache,
	avatars AvatarStorage,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionCache:      sessions,
		avatarStorage:     avatars,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the sanitized profile of a user.

Description: Serves from the session cache when the user is logged in (the
common case for /me) and falls back to persistent storage otherwise.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *sec.Identity: Sanitized profile snapshot
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*sec.Identity, error) {

	// Fast path: the logged-in snapshot already carries every profile field.
	identity, err := service.sessionCache.Get(context, userID)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, auth.ErrSessionNotFound) {
		return nil, err
	}

	// Cache miss: hydrate from persistent storage.
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	return user.Identity(), nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	Name *string
}

/*
UpdateProfile applies a partial set of changes to a user's profile.

Description: Fetches the existing user state, overrides provided fields,
persists the change, and mirrors the new snapshot into the session cache.
The cache write follows the database write: if it fails the request fails,
keeping the two stores from drifting apart silently.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.Name != nil {
		user.Name = *input.Name
	}

	// Persist changes
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	// Mirror into the session cache so the guard sees the new attributes.
	if err := service.refreshSnapshot(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
UpdateAvatar stores a new avatar image and binds its URL to the profile.

Description: Uploads the payload to object storage under a per-user key
(subsequent uploads overwrite the previous avatar), persists the URL, and
mirrors the snapshot into the session cache.

Parameters:
  - context: context.Context
  - userID: string
  - contentType: string
  - payload: []byte

Returns:
  - string: Public URL of the stored avatar
  - error: Storage or persistence failures
*/
func (service *Service) UpdateAvatar(context context.Context, userID string, contentType string, payload []byte) (string, error) {

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return "", err
	}

	// One key per user: re-uploading replaces the object in place.
	avatarURL, err := service.avatarStorage.Upload(context, avatarKey(userID), contentType, payload)
	if err != nil {
		return "", fmt.Errorf("account_service_avatar_upload_failed: %w", err)
	}

	user.AvatarURL = avatarURL
	if err := service.accountRepository.Update(context, user); err != nil {
		return "", fmt.Errorf("account_service_avatar_persist_failed: %w", err)
	}

	if err := service.refreshSnapshot(context, user); err != nil {
		return "", err
	}

	service.logger.Info("user_avatar_updated", slog.String("user_id", userID))

	return avatarURL, nil
}

// # Administration

/*
ListUsers returns every registered account, newest first.

Parameters:
  - context: context.Context

Returns:
  - []*auth.User: All accounts
  - error: Retrieval failures
*/
func (service *Service) ListUsers(context context.Context) ([]*auth.User, error) {
	users, err := service.accountRepository.List(context)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_users_failed: %w", err)
	}
	return users, nil
}

/*
GetUser returns a single account by ID.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) GetUser(context context.Context, userID string) (*auth.User, error) {
	return service.accountRepository.FindByID(context, userID)
}

/*
DeleteUser permanently removes an account and ends its session everywhere.

Description: Removes the account row, best-effort deletes the avatar object,
and deletes the logged-in snapshot so any outstanding credentials die with
the account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: apperr.NotFound or execution failures
*/
func (service *Service) DeleteUser(context context.Context, userID string) error {

	if err := service.accountRepository.Delete(context, userID); err != nil {
		return err
	}

	// Force global sign-out for the deleted account.
	if err := service.sessionCache.Delete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_session_failed: %w", err)
	}

	// Orphaned avatar cleanup is best-effort.
	_ = service.avatarStorage.Delete(context, avatarKey(userID))

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Internals

// refreshSnapshot overwrites the logged-in snapshot with the user's current
// state. A user without a live session is simply skipped.
func (service *Service) refreshSnapshot(context context.Context, user *auth.User) error {
	_, err := service.sessionCache.Get(context, user.ID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := service.sessionCache.Put(context, user.Identity(), auth.SessionCacheTTL); err != nil {
		return fmt.Errorf("account_service_snapshot_refresh_failed: %w", err)
	}
	return nil
}

// avatarKey builds the object storage key for a user's avatar.
func avatarKey(userID string) string {
	return "avatars/" + userID
}
