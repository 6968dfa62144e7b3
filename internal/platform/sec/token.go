// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer at construction time; business code never reads ambient
// secrets or environment state.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Failure Kinds
//
// Verification failures are distinct sentinels so that callers can react
// differently: an expired credential should prompt "log in again", while a
// malformed or forged one is rejected outright.

var (
	// ErrTokenExpired is returned when a structurally valid token is past its expiry.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenMalformed is returned when a token cannot be parsed at all.
	ErrTokenMalformed = errors.New("sec: token malformed")

	// ErrTokenSignatureInvalid is returned when the signature does not match
	// the verification secret (forged, corrupted, or signed under another key).
	ErrTokenSignatureInvalid = errors.New("sec: token signature mismatch")
)

// # Claim Payloads

// ActivationClaims is the payload embedded inside an activation token.
//
// The token is the only link between the registration response and the
// activation request: it is never persisted server-side and carries the
// pending identity plus the emailed 4-digit code.
type ActivationClaims struct {
	jwt.RegisteredClaims

	Name  string `json:"name"`
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SessionClaims is the payload embedded inside access and refresh credentials.
//
// # Why only the user ID?
//
// Identity attributes (role, activation state) are hydrated from the session
// cache on every request. Embedding them in the credential would let a stale
// or revoked snapshot authorize requests for the credential's full lifetime.
type SessionClaims struct {
	jwt.RegisteredClaims

	UserID string `json:"uid"`
}

// # Token Codec

// TokenCodec mints and verifies signed, expiring tokens (HMAC-SHA256).
//
// Tokens are self-contained and stateless: verification never touches
// storage. Three independent secrets are used for activation, access, and
// refresh credentials; a token minted under one secret never verifies under
// another.
type TokenCodec struct {
	issuer string
	now    func() time.Time
}

// NewTokenCodec creates a codec that evaluates expiry against wall-clock time.
func NewTokenCodec(issuer string) *TokenCodec {
	return &TokenCodec{issuer: issuer, now: time.Now}
}

// NewTokenCodecWithClock creates a codec with an injected clock.
// Used by tests to probe expiry boundaries deterministically.
func NewTokenCodecWithClock(issuer string, now func() time.Time) *TokenCodec {
	return &TokenCodec{issuer: issuer, now: now}
}

/*
MintActivation creates a signed activation token.

Parameters:
  - name: Pending display name
  - email: Pending unique email
  - code: 4-digit activation code (delivered out-of-band via email)
  - secret: Activation signing secret
  - timeToLive: Duration before the token expires

Returns:
  - A signed token string, or an error if signing fails.
*/
func (codec *TokenCodec) MintActivation(name, email, code, secret string, timeToLive time.Duration) (string, error) {
	claims := ActivationClaims{
		RegisteredClaims: codec.registered(email, timeToLive),
		Name:             name,
		Email:            email,
		Code:             code,
	}
	return codec.sign(claims, secret)
}

/*
VerifyActivation checks an activation token and returns its embedded payload.

Returns:
  - *ActivationClaims: The pending identity and activation code
  - error: ErrTokenExpired, ErrTokenMalformed, or ErrTokenSignatureInvalid
*/
func (codec *TokenCodec) VerifyActivation(token, secret string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := codec.parse(token, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

/*
MintSession creates a signed access or refresh credential for a user.

The same mint path serves both credential kinds; they differ only in the
secret and TTL supplied by the caller.

Parameters:
  - userID: The account the credential authorizes
  - secret: Access or refresh signing secret
  - timeToLive: Duration before the credential expires
*/
func (codec *TokenCodec) MintSession(userID, secret string, timeToLive time.Duration) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: codec.registered(userID, timeToLive),
		UserID:           userID,
	}
	return codec.sign(claims, secret)
}

/*
VerifySession checks an access or refresh credential.

Returns:
  - *SessionClaims: The embedded user ID
  - error: ErrTokenExpired, ErrTokenMalformed, or ErrTokenSignatureInvalid
*/
func (codec *TokenCodec) VerifySession(token, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := codec.parse(token, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// # Internals

// registered builds the standard claim set with issued-at and expiry stamps.
func (codec *TokenCodec) registered(subject string, timeToLive time.Duration) jwt.RegisteredClaims {
	currentTime := codec.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    codec.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}
}

// sign serializes and signs the claims with HMAC-SHA256.
func (codec *TokenCodec) sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}

// parse verifies signature and expiry, mapping library errors onto the
// package's sentinel failure kinds.
func (codec *TokenCodec) parse(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(codec.now),
	)

	switch {
	case err == nil && token.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
