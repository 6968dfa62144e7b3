// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

/*
Package auth implements the core identity and access management (IAM) system.

It handles everything from user registration and secure password hashing to
session lifecycle management via signed credentials and a Redis-backed
logged-in snapshot.

Architecture:

  - Service: Orchestrates business logic (Register, Activate, Login, Refresh).
  - Repository: Abstracted interfaces for Postgres (Users) and Redis (Sessions).
  - Security: Leverages Bcrypt hashing and HMAC-signed credentials.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/quangdang46/learnio/internal/platform/apperr"
	"github.com/quangdang46/learnio/internal/platform/middleware"
	"github.com/quangdang46/learnio/internal/platform/sec"
	"github.com/quangdang46/learnio/pkg/uuid"
)

// # Contracts & Types

// Settings carries the signing material and credential lifetimes for the
// service. Three independent secrets: a token minted under one never verifies
// under another.
type Settings struct {
	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	sessionCache   SessionCache
	emailSender    EmailSender
	tokenCodec     *sec.TokenCodec
	settings       Settings
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessions SessionCache,
	emails EmailSender,
	codec *sec.TokenCodec,
	settings Settings,
) *Service {
	return &Service{
		userRepository: userRepo,
		sessionCache:   sessions,
		emailSender:    emails,
		tokenCodec:     codec,
		settings:       settings,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register stages a new, not-yet-activated user account.

Description: Verifies email uniqueness, hashes the password, emails a 4-digit
activation code, and persists the account in a deactivated state. The
returned activation token is the only link between this call and the
subsequent Activate call; nothing about the pending activation is stored
server-side.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - string: Signed activation token (expires in 10 minutes)
  - error: Conflict (if the email exists) or storage/delivery errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (string, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return "", apperr.Conflict("Email is already registered")
	}

	// Only a confirmed absence may proceed. On an unreachable database the
	// registration must abort here, before the activation email goes out for
	// an account that could never be persisted.
	if !apperr.IsNotFound(err) {
		return "", err
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return "", fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Generate the 4-digit code and bind it into the activation token.
	code, err := generateActivationCode()
	if err != nil {
		return "", fmt.Errorf("auth_service_code_generation_failed: %w", err)
	}

	activationToken, err := service.tokenCodec.MintActivation(
		input.Name, input.Email, code,
		service.settings.ActivationSecret, ActivationTokenTTL,
	)
	if err != nil {
		return "", fmt.Errorf("auth_service_activation_token_failed: %w", err)
	}

	// Deliver the code BEFORE persisting: if the relay is down the user can
	// simply retry registration without hitting the uniqueness conflict.
	if err := service.emailSender.SendActivation(context, input.Email, input.Name, code); err != nil {
		return "", apperr.DependencyUnavailable("Email", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         sec.RoleUser,
		IsActivated:  false,
	}

	// Persist the user to the database. A concurrent registration racing past
	// the FindByEmail check is closed out here by the unique email index.
	if err := service.userRepository.Create(context, user); err != nil {
		return "", err
	}

	return activationToken, nil
}

/*
Activate completes registration by verifying the emailed 4-digit code.

Description: Verifies the activation token's signature and expiry, compares
the submitted code against the one bound into the token, and flips the
account to activated. Activating an already-active account with a fresh,
valid token is a harmless no-op.

Parameters:
  - context: context.Context
  - activationToken: string
  - activationCode: string

Returns:
  - error: ValidationError (bad token, expired token, or wrong code), or storage errors
*/
func (service *Service) Activate(context context.Context, activationToken, activationCode string) error {

	// A forged token, an expired token and a wrong code all collapse into the
	// same failure: the response must not tell an attacker which check failed.
	claims, err := service.tokenCodec.VerifyActivation(activationToken, service.settings.ActivationSecret)
	if err != nil {
		return apperr.ValidationError("Invalid activation token or code")
	}

	// Compare the emailed code against the one bound into the token.
	if claims.Code != activationCode {
		return apperr.ValidationError("Invalid activation token or code")
	}

	// Resolve the staged account by the email carried in the token.
	user, err := service.userRepository.FindByEmail(context, claims.Email)
	if err != nil {
		return err
	}

	// Replay with a still-valid token: nothing to do.
	if user.IsActivated {
		return nil
	}

	if err := service.userRepository.MarkActivated(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_activate_failed: %w", err)
	}

	return nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

/*
Login validates user credentials and issues a credential pair.

Description: Verifies identity with a constant-time password comparison,
writes the sanitized logged-in snapshot to the session cache, and mints a
short-lived access credential plus a long-lived refresh credential.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session credentials
  - err: Unauthorized, Forbidden (not activated), or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {

	user, err := service.userRepository.FindByEmail(context, input.Email)

	// An absent account reads as bad credentials (generic message to prevent
	// enumeration); anything else is a lookup failure and propagates as-is,
	// so a database outage never masquerades as a wrong password.
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid email or password")
		}
		return nil, err
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	// A staged account that never confirmed its email cannot hold a session.
	if !user.IsActivated {
		return nil, apperr.Forbidden("Please activate your account before logging in")
	}

	// Write the sanitized snapshot FIRST: a minted credential without a cache
	// entry behind it would be dead on arrival at the authorization guard.
	if err := service.sessionCache.Put(context, user.Identity(), SessionCacheTTL); err != nil {
		return nil, fmt.Errorf("auth_service_session_put_failed: %w", err)
	}

	// Mint the short-lived access credential.
	accessToken, err := service.tokenCodec.MintSession(user.ID, service.settings.AccessSecret, service.settings.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	// Mint the long-lived refresh credential.
	refreshToken, err := service.tokenCodec.MintSession(user.ID, service.settings.RefreshSecret, service.settings.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

/*
Logout terminates the user's session everywhere.

Description: Removes the logged-in snapshot from the session cache. Any
credentials still held by clients become useless immediately; repeating a
logout is a harmless no-op (idempotent operation).

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - err: Cache connectivity failures
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.sessionCache.Delete(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Session Management

// RefreshedSession holds the rotated credential pair issued by RefreshAccess.
type RefreshedSession struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

/*
RefreshAccess rotates the caller's credential pair.

Description: Verifies the refresh credential, requires a live logged-in
snapshot behind it, re-arms the snapshot's TTL, and issues a fresh pair of
rotated credentials. BOTH credentials rotate: presenting the old refresh
credential after rotation only works until its own expiry, but the cache
entry remains the kill switch.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *RefreshedSession: New credential pair
  - err: Unauthorized (bad credential), NotFound (session ended), or storage failures
*/
func (service *Service) RefreshAccess(context context.Context, refreshToken string) (*RefreshedSession, error) {

	// Verify signature and expiry. All failure kinds collapse to a generic
	// Unauthorized so the response leaks nothing about which check failed.
	claims, err := service.tokenCodec.VerifySession(refreshToken, service.settings.RefreshSecret)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// The snapshot is the source of truth: a valid credential with no cache
	// entry behind it means the user logged out (or was logged out elsewhere).
	if _, err := service.sessionCache.Get(context, claims.UserID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperr.NotFound("Session")
		}
		return nil, err
	}

	// Re-arm the snapshot TTL without rewriting the payload: profile edits
	// made since login stay intact in the cache.
	if err := service.sessionCache.Touch(context, claims.UserID, SessionCacheTTL); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("auth_service_refresh_touch_failed: %w", err)
	}

	// Mint the rotated pair.
	accessToken, err := service.tokenCodec.MintSession(claims.UserID, service.settings.AccessSecret, service.settings.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	newRefreshToken, err := service.tokenCodec.MintSession(claims.UserID, service.settings.RefreshSecret, service.settings.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_rotate_failed: %w", err)
	}

	return &RefreshedSession{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		UserID:       claims.UserID,
	}, nil
}

// # Guard Adapters
//
// The middleware layer consumes the service through two narrow interfaces
// ([middleware.CredentialVerifier] and [middleware.SessionReader]); these
// methods satisfy them.

// VerifyAccess checks an access credential's signature and expiry and returns
// the embedded user ID. Pure computation: no storage is touched.
func (service *Service) VerifyAccess(token string) (string, error) {
	claims, err := service.tokenCodec.VerifySession(token, service.settings.AccessSecret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Identity resolves a user ID to the cached logged-in snapshot. A cache miss
// is translated to the middleware's sentinel so the guard can answer 401.
func (service *Service) Identity(context context.Context, userID string) (*sec.Identity, error) {
	identity, err := service.sessionCache.Get(context, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, middleware.ErrSessionNotFound
		}
		return nil, err
	}
	return identity, nil
}

// # Internals

// generateActivationCode returns a uniformly random 4-digit code in
// [1000, 9000). crypto/rand keeps the code unguessable even if many
// registrations race in the same millisecond.
func generateActivationCode() (string, error) {
	offset, err := rand.Int(rand.Reader, big.NewInt(ActivationCodeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(ActivationCodeMin+offset.Int64(), 10), nil
}
