// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangdang46/learnio/internal/auth"
	"github.com/quangdang46/learnio/internal/platform/constants"
	"github.com/quangdang46/learnio/internal/platform/middleware"
)

// newAuthRouter mounts the handler behind the same guard chain the server
// uses, so cookie-driven authentication is exercised end to end.
func newAuthRouter(fixture *serviceFixture) http.Handler {
	limiter := middleware.NewLoginRateLimiterWithClock(15*time.Minute, 1000, time.Now)
	handler := auth.NewHandler(fixture.service, limiter, false)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(fixture.service, fixture.service))
	router.Mount("/auth", handler.Routes())
	return router
}

func postJSON(t *testing.T, router http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// cookieByName digs a Set-Cookie out of a recorded response.
func cookieByName(t *testing.T, recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

/*
TestHandler_Register covers the creation endpoint and its validation.
*/
func TestHandler_Register(t *testing.T) {
	fixture := newServiceFixture()
	router := newAuthRouter(fixture)

	recorder := postJSON(t, router, "/auth/register",
		`{"name":"Quang","email":"quang@learnio.app","password":"super-secret-pw"}`)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"activation_token"`)
	assert.Contains(t, recorder.Body.String(), "check your email")
}

/*
TestHandler_Register_Invalid covers the validation failures.
*/
func TestHandler_Register_Invalid(t *testing.T) {
	fixture := newServiceFixture()
	router := newAuthRouter(fixture)

	tests := []struct {
		name string
		body string
	}{
		{"broken_json", `{"name":`},
		{"missing_email", `{"name":"Quang","password":"super-secret-pw"}`},
		{"bad_email", `{"name":"Quang","email":"not-an-email","password":"super-secret-pw"}`},
		{"short_password", `{"name":"Quang","email":"quang@learnio.app","password":"short"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postJSON(t, router, "/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

/*
TestHandler_Activate covers the activation endpoint.
*/
func TestHandler_Activate(t *testing.T) {
	fixture := newServiceFixture()
	router := newAuthRouter(fixture)

	token, err := fixture.service.Register(context.Background(),
		auth.RegisterInput{Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw"})
	require.NoError(t, err)

	// A non-numeric code never reaches the service.
	recorder := postJSON(t, router, "/auth/activate",
		`{"activation_token":"`+token+`","activation_code":"abcd"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = postJSON(t, router, "/auth/activate",
		`{"activation_token":"`+token+`","activation_code":"`+fixture.mailer.lastCode+`"}`)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "activated successfully")
}

/*
TestHandler_Login verifies that a successful login injects both credential
cookies and returns the profile.
*/
func TestHandler_Login(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	router := newAuthRouter(fixture)

	recorder := postJSON(t, router, "/auth/login",
		`{"email":"quang@learnio.app","password":"super-secret-pw"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"access_token"`)
	assert.Contains(t, recorder.Body.String(), `"refresh_token"`)
	assert.Contains(t, recorder.Body.String(), `"quang@learnio.app"`)

	// The password hash never leaks through the user payload.
	assert.NotContains(t, recorder.Body.String(), "password")

	accessCookie := cookieByName(t, recorder, constants.AccessTokenCookieName)
	refreshCookie := cookieByName(t, recorder, constants.RefreshTokenCookieName)
	require.NotNil(t, accessCookie)
	require.NotNil(t, refreshCookie)
	assert.NotEmpty(t, accessCookie.Value)
	assert.NotEmpty(t, refreshCookie.Value)
	assert.Equal(t, http.SameSiteLaxMode, accessCookie.SameSite)

	// Outside production the cookies stay inspectable.
	assert.False(t, accessCookie.Secure)
	assert.False(t, accessCookie.HttpOnly)
}

/*
TestHandler_Login_BadCredentials verifies the 401 and that no cookies are set.
*/
func TestHandler_Login_BadCredentials(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	router := newAuthRouter(fixture)

	recorder := postJSON(t, router, "/auth/login",
		`{"email":"quang@learnio.app","password":"wrong-password"}`)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Nil(t, cookieByName(t, recorder, constants.AccessTokenCookieName))
	assert.Nil(t, cookieByName(t, recorder, constants.RefreshTokenCookieName))
}

/*
TestHandler_Login_StaleCookie verifies that a client logged out elsewhere —
still carrying a signature-valid access cookie with no session behind it —
can log back in instead of being bounced off the login route with a 401.
*/
func TestHandler_Login_StaleCookie(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	router := newAuthRouter(fixture)

	login := postJSON(t, router, "/auth/login",
		`{"email":"quang@learnio.app","password":"super-secret-pw"}`)
	require.Equal(t, http.StatusOK, login.Code)
	staleCookie := cookieByName(t, login, constants.AccessTokenCookieName)
	require.NotNil(t, staleCookie)

	// The session ends on another device; the cookie stays on this one.
	userID, err := fixture.service.VerifyAccess(staleCookie.Value)
	require.NoError(t, err)
	require.NoError(t, fixture.cache.Delete(context.Background(), userID))

	recorder := postJSON(t, router, "/auth/login",
		`{"email":"quang@learnio.app","password":"super-secret-pw"}`, staleCookie)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.NotNil(t, cookieByName(t, recorder, constants.AccessTokenCookieName))
	assert.NotNil(t, cookieByName(t, recorder, constants.RefreshTokenCookieName))
}

/*
TestHandler_Refresh verifies credential rotation through the cookie path.
*/
func TestHandler_Refresh(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	router := newAuthRouter(fixture)

	login := postJSON(t, router, "/auth/login",
		`{"email":"quang@learnio.app","password":"super-secret-pw"}`)
	require.Equal(t, http.StatusOK, login.Code)
	refreshCookie := cookieByName(t, login, constants.RefreshTokenCookieName)
	require.NotNil(t, refreshCookie)

	recorder := postJSON(t, router, "/auth/refresh", "", refreshCookie)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"token_type":"Bearer"`)
	assert.Contains(t, recorder.Body.String(), `"expires_in":300`)

	// Both cookies are rotated.
	assert.NotNil(t, cookieByName(t, recorder, constants.AccessTokenCookieName))
	assert.NotNil(t, cookieByName(t, recorder, constants.RefreshTokenCookieName))
}

/*
TestHandler_Refresh_SessionEnded verifies that a refresh call carrying both
cookies but no live session answers 404: the stale access cookie must not be
intercepted into a 401 before the refresh handler runs.
*/
func TestHandler_Refresh_SessionEnded(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	router := newAuthRouter(fixture)

	login := postJSON(t, router, "/auth/login",
		`{"email":"quang@learnio.app","password":"super-secret-pw"}`)
	require.Equal(t, http.StatusOK, login.Code)
	accessCookie := cookieByName(t, login, constants.AccessTokenCookieName)
	refreshCookie := cookieByName(t, login, constants.RefreshTokenCookieName)
	require.NotNil(t, accessCookie)
	require.NotNil(t, refreshCookie)

	userID, err := fixture.service.VerifyAccess(accessCookie.Value)
	require.NoError(t, err)
	require.NoError(t, fixture.cache.Delete(context.Background(), userID))

	recorder := postJSON(t, router, "/auth/refresh", "", accessCookie, refreshCookie)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Session not found")
}

/*
TestHandler_Refresh_MissingCookie verifies the 401 for a cookie-less call.
*/
func TestHandler_Refresh_MissingCookie(t *testing.T) {
	fixture := newServiceFixture()
	router := newAuthRouter(fixture)

	recorder := postJSON(t, router, "/auth/refresh", "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Missing refresh token")
}

/*
TestHandler_Logout verifies the authenticated logout flow: session killed,
cookies expired on the client.
*/
func TestHandler_Logout(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	router := newAuthRouter(fixture)

	login := postJSON(t, router, "/auth/login",
		`{"email":"quang@learnio.app","password":"super-secret-pw"}`)
	require.Equal(t, http.StatusOK, login.Code)
	accessCookie := cookieByName(t, login, constants.AccessTokenCookieName)
	require.NotNil(t, accessCookie)

	recorder := postJSON(t, router, "/auth/logout", "", accessCookie)

	require.Equal(t, http.StatusNoContent, recorder.Code)

	// Both cookies are told to expire immediately.
	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		cleared := cookieByName(t, recorder, name)
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
		assert.Empty(t, cleared.Value)
	}

	// The old access credential is dead: the session behind it is gone.
	replay := postJSON(t, router, "/auth/logout", "", accessCookie)
	assert.Equal(t, http.StatusUnauthorized, replay.Code)
}

/*
TestHandler_Logout_Anonymous verifies that logout requires authentication.
*/
func TestHandler_Logout_Anonymous(t *testing.T) {
	fixture := newServiceFixture()
	router := newAuthRouter(fixture)

	recorder := postJSON(t, router, "/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
