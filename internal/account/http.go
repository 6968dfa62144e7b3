// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

/*
Package account provides the HTTP delivery layer for profile management.

It implements the RESTful interface for users to read and edit their own
profile and for administrators to manage accounts.

# Security

All endpoints in this package require an active authentication session
provided by the RequireAuth middleware; the administrative subtree
additionally requires the admin role.
*/
package account

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quangdang46/learnio/internal/platform/middleware"
	requestutil "github.com/quangdang46/learnio/internal/platform/request"
	"github.com/quangdang46/learnio/internal/platform/respond"
	"github.com/quangdang46/learnio/internal/platform/sec"
	"github.com/quangdang46/learnio/internal/platform/validate"
)

// Handler implements the HTTP layer for user profile management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// Profile Management
	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Put("/me/avatar", handler.updateAvatar)

	// Administration
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/", handler.listUsers)
		r.Get("/{id}", handler.getUser)
		r.Delete("/{id}", handler.deleteUser)
	})

	return router
}

// # Profile Endpoints

/*
GET /api/v1/users/me.

Description: Retrieves the sanitized profile of the authenticated user.

Response:
  - 200: Identity: Sanitized profile snapshot
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	Name *string `json:"name"`
}

/*
PATCH /api/v1/users/me.

Description: Applies partial updates to the authenticated user's profile.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.Name != nil {
		v.Required(FieldName, *input.Name).MaxLen(FieldName, *input.Name, MaxNameLength)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Name: input.Name,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PUT /api/v1/users/me/avatar.

Description: Replaces the authenticated user's avatar image. The raw image
travels as the request body; its Content-Type header names the format.

Request:
  - body: Raw image bytes (image/png, image/jpeg, image/webp; max 2 MiB)

Response:
  - 200: AvatarURL: Public URL of the stored avatar
  - 400: Validation: Unsupported type or oversized payload
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contentType := request.Header.Get("Content-Type")

	v := &validate.Validator{}
	v.OneOf(FieldAvatar, contentType, "image/png", "image/jpeg", "image/webp")
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Read one byte past the cap to tell "exactly at the limit" from "over it".
	payload, err := io.ReadAll(io.LimitReader(request.Body, MaxAvatarBytes+1))
	if err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v = &validate.Validator{}
	v.Custom(FieldAvatar, len(payload) == 0, "Image payload is empty").
		Custom(FieldAvatar, len(payload) > MaxAvatarBytes, "Image exceeds the 2 MiB limit")
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	avatarURL, err := handler.accountService.UpdateAvatar(request.Context(), userID, contentType, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldAvatarURL: avatarURL,
	})
}

// # Administration Endpoints

/*
GET /api/v1/users.

Description: Enumerates all registered accounts, newest first. Admin only.

Response:
  - 200: []User: All accounts
  - 403: ErrForbidden: Caller is not an admin
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.accountService.ListUsers(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, users)
}

/*
GET /api/v1/users/{id}.

Description: Retrieves a single account by ID. Admin only.

Request:
  - id: string (UUID)

Response:
  - 200: User: Hydrated account
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	user, err := handler.accountService.GetUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/users/{id}.

Description: Permanently removes an account and ends its session everywhere.
Admin only.

Request:
  - id: string (UUID)

Response:
  - 204: No Content: Account deleted
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	if err := handler.accountService.DeleteUser(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
