// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

// Package middleware provides the HTTP middleware chain for the Learnio API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/quangdang46/learnio/internal/platform/apperr"
	"github.com/quangdang46/learnio/internal/platform/constants"
	"github.com/quangdang46/learnio/internal/platform/ctxutil"
	"github.com/quangdang46/learnio/internal/platform/respond"
	"github.com/quangdang46/learnio/internal/platform/sec"
)

// CredentialVerifier defines the interface needed to verify access credentials.
//
// # Why an interface?
//
// Defining CredentialVerifier here decouples the middleware from the `auth`
// service implementation, allowing us to easily inject mocks during unit testing.
type CredentialVerifier interface {
	// VerifyAccess checks the access credential's signature and expiry and
	// returns the embedded user ID.
	VerifyAccess(token string) (userID string, err error)
}

// SessionReader resolves a user ID to the cached, sanitized caller snapshot.
//
// The cache entry — not the credential — is the source of truth for
// logged-in state. A syntactically valid credential whose snapshot is absent
// must be treated as invalid.
type SessionReader interface {
	Identity(ctx context.Context, userID string) (*sec.Identity, error)
}

// ErrSessionNotFound is returned by [SessionReader] implementations when no
// cache entry exists for the user ID.
var ErrSessionNotFound = errors.New("middleware: session not found")

// Authenticate extracts and verifies the access credential cookie.
//
// # Flow
//  1. Check for the 'access_token' cookie.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify signature and expiry via [CredentialVerifier].
//  4. Hydrate the caller snapshot from the session cache via [SessionReader].
//  5. Inject [*sec.Identity] into the request context for downstream use.
//
// A dead credential — expired, forged, or with no live session behind it —
// downgrades the request to anonymous instead of aborting it. The caller may
// be heading for a public entry point: a client whose session ended on
// another device still carries the stale cookie and must be able to reach
// /login and /refresh. Protected routes answer 401 through [RequireAuth].
func Authenticate(verifier CredentialVerifier, sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Anonymous Access ───────────────────────────────────────────
			cookie, err := request.Cookie(constants.AccessTokenCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Credential Verification (pure computation, no storage) ─────
			userID, err := verifier.VerifyAccess(cookie.Value)
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Session Hydration ──────────────────────────────────────────
			identity, err := sessions.Identity(request.Context(), userID)
			if err != nil {
				if errors.Is(err, ErrSessionNotFound) {
					next.ServeHTTP(writer, request)
					return
				}
				// A degraded session cache is a real failure, not anonymity.
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity := ctxutil.GetIdentity(request.Context())
		if identity == nil {
			respond.Error(writer, request, apperr.Unauthorized("Please login to access this resource"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests whose caller role is not in the allowed set.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically
// implies [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*sec.Identity] exists in context (implies AuthN).
//  2. Check set membership of the caller's role via [sec.Role.In].
//  3. If not a member, abort with HTTP 403 Forbidden.
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Please login to access this resource"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !identity.Role.In(allowed...) {
				respond.Error(writer, request, apperr.Forbidden("You do not have permission to perform this action"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
