// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

/*
Package auth provides the HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle—from account
creation and email activation to session refresh and logout.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Both session credentials travel as cookies; the handler owns
    their injection and clearing.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quangdang46/learnio/internal/platform/apperr"
	"github.com/quangdang46/learnio/internal/platform/constants"
	"github.com/quangdang46/learnio/internal/platform/middleware"
	requestutil "github.com/quangdang46/learnio/internal/platform/request"
	"github.com/quangdang46/learnio/internal/platform/respond"
	"github.com/quangdang46/learnio/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the session lifecycle entry
// points (Registration, Activation, Login, Refresh, Logout).
type Handler struct {
	authService  *Service
	loginLimiter *middleware.LoginRateLimiter
	isProduction bool
}

// NewHandler constructs a new [Handler] with its service dependency.
//
// isProduction controls cookie hardening: Secure and HttpOnly are applied in
// production only, so local HTTP development and browser devtools keep working.
func NewHandler(service *Service, loginLimiter *middleware.LoginRateLimiter, isProduction bool) *Handler {
	return &Handler{
		authService:  service,
		loginLimiter: loginLimiter,
		isProduction: isProduction,
	}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Stages a new account and emails an activation code.
//   - POST /activate : Confirms the code and activates the account.
//   - POST /login    : Authenticates and injects credential cookies (rate limited).
//   - POST /refresh  : Rotates the credential pair.
//   - POST /logout   : Ends the session everywhere.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/activate", handler.activate)
	router.With(handler.loginLimiter.Middleware).Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type activateRequest struct {
	ActivationToken string `json:"activation_token"`
	ActivationCode  string `json:"activation_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
Register stages the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, emails a 4-digit activation code, and returns
an activation token binding this registration to the subsequent activation.

Request:
  - Body: registerRequest (Name, Email, Password)

Response:
  - 201: ActivationToken: Token for the activation step
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 100).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	activationToken, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{
		FieldActivationToken: activationToken,
		FieldMessage:         "Please check your email to activate your account",
	})
}

/*
Activate completes registration with the emailed code.

POST /api/v1/auth/activate

Description: Verifies the activation token and 4-digit code and flips the
account to activated.

Request:
  - Body: activateRequest (ActivationToken, ActivationCode)

Response:
  - 200: Success: Account activated
  - 400: Validation: Forged token, expired token, or wrong code
*/
func (handler *Handler) activate(writer http.ResponseWriter, request *http.Request) {
	var input activateRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldActivationToken, input.ActivationToken).
		Required(FieldActivationCode, input.ActivationCode).
		Digits(FieldActivationCode, input.ActivationCode, ActivationCodeLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Activate(request.Context(), input.ActivationToken, input.ActivationCode); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Account activated successfully",
	})
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, writes the logged-in snapshot to the
session cache, and injects both credential cookies into the response.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: User profile and both credential strings
  - 401: ErrUnauthorized: Invalid credentials
  - 403: ErrForbidden: Account not activated
  - 429: ErrRateLimited: Too many attempts from this address
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session.AccessToken, session.RefreshToken)

	respond.OK(writer, map[string]any{
		FieldUser:         session.User,
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
	})
}

/*
Refresh rotates the caller's credential pair.

POST /api/v1/auth/refresh

Description: Validates the refresh credential cookie against the session
cache, re-arms the cache TTL, and injects a fresh pair of cookies.

Response:
  - 200: RefreshResponse: New access credential
  - 401: ErrUnauthorized: Missing or invalid refresh credential
  - 404: ErrNotFound: No live session behind the credential (logged out elsewhere)
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	session, err := handler.authService.RefreshAccess(request.Context(), cookie.Value)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session.AccessToken, session.RefreshToken)

	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int64(handler.authService.settings.AccessTokenTTL / time.Second),
	})
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Description: Deletes the logged-in snapshot from the session cache and clears
both credential cookies from the client.

Response:
  - 204: No Content: Session terminated
  - 401: ErrUnauthorized: Not authenticated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookies(writer)
	respond.NoContent(writer)
}

// # Cookie Management

// setSessionCookies injects both credential cookies. Each cookie expires with
// its credential so the browser drops dead credentials on its own.
func (handler *Handler) setSessionCookies(writer http.ResponseWriter, accessToken, refreshToken string) {
	now := time.Now()

	handler.setCookie(writer, constants.AccessTokenCookieName, accessToken,
		now.Add(handler.authService.settings.AccessTokenTTL))
	handler.setCookie(writer, constants.RefreshTokenCookieName, refreshToken,
		now.Add(handler.authService.settings.RefreshTokenTTL))
}

// clearSessionCookies expires both credential cookies on the client.
func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		http.SetCookie(writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     constants.CookiePath,
			MaxAge:   -1,
			Secure:   handler.isProduction,
			HttpOnly: handler.isProduction,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// setCookie writes one credential cookie with the environment-dependent
// hardening flags.
func (handler *Handler) setCookie(writer http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.CookiePath,
		Expires:  expires,
		Secure:   handler.isProduction,
		HttpOnly: handler.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
