// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangdang46/learnio/internal/auth"
	"github.com/quangdang46/learnio/internal/platform/apperr"
	"github.com/quangdang46/learnio/internal/platform/middleware"
	"github.com/quangdang46/learnio/internal/platform/sec"
)

// # Test Doubles

// fakeUserRepository is an in-memory UserRepository that mimics the unique
// email index. A non-nil findErr simulates an unreachable database.
type fakeUserRepository struct {
	byID    map[string]*auth.User
	byEmail map[string]*auth.User
	findErr error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		byID:    make(map[string]*auth.User),
		byEmail: make(map[string]*auth.User),
	}
}

func (repository *fakeUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, found := repository.byID[id]
	if !found {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if repository.findErr != nil {
		return nil, repository.findErr
	}
	user, found := repository.byEmail[email]
	if !found {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	if _, exists := repository.byEmail[user.Email]; exists {
		// Mirrors the SQLSTATE 23505 mapping in the real store.
		return apperr.Conflict("Email is already registered")
	}
	clone := *user
	repository.byID[user.ID] = &clone
	repository.byEmail[user.Email] = &clone
	return nil
}

func (repository *fakeUserRepository) MarkActivated(_ context.Context, userID string) error {
	user, found := repository.byID[userID]
	if !found {
		return apperr.NotFound("User")
	}
	user.IsActivated = true
	return nil
}

// fakeSessionCache is an in-memory SessionCache.
type fakeSessionCache struct {
	snapshots map[string]*sec.Identity
	failPut   bool
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{snapshots: make(map[string]*sec.Identity)}
}

func (cache *fakeSessionCache) Put(_ context.Context, identity *sec.Identity, _ time.Duration) error {
	if cache.failPut {
		return apperr.DependencyUnavailable("Session cache", errors.New("down"))
	}
	clone := *identity
	cache.snapshots[identity.UserID] = &clone
	return nil
}

func (cache *fakeSessionCache) Get(_ context.Context, userID string) (*sec.Identity, error) {
	identity, found := cache.snapshots[userID]
	if !found {
		return nil, auth.ErrSessionNotFound
	}
	clone := *identity
	return &clone, nil
}

func (cache *fakeSessionCache) Touch(_ context.Context, userID string, _ time.Duration) error {
	if _, found := cache.snapshots[userID]; !found {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (cache *fakeSessionCache) Delete(_ context.Context, userID string) error {
	delete(cache.snapshots, userID)
	return nil
}

// fakeEmailSender records the last delivered activation code.
type fakeEmailSender struct {
	lastEmail string
	lastCode  string
	failSend  bool
}

func (sender *fakeEmailSender) SendActivation(_ context.Context, email, _, code string) error {
	if sender.failSend {
		return errors.New("relay down")
	}
	sender.lastEmail = email
	sender.lastCode = code
	return nil
}

// # Fixture

type serviceFixture struct {
	service *auth.Service
	users   *fakeUserRepository
	cache   *fakeSessionCache
	mailer  *fakeEmailSender
	clock   *time.Time
}

var testSettings = auth.Settings{
	ActivationSecret: "activation-secret",
	AccessSecret:     "access-secret",
	RefreshSecret:    "refresh-secret",
	AccessTokenTTL:   5 * time.Minute,
	RefreshTokenTTL:  3 * 24 * time.Hour,
}

func newServiceFixture() *serviceFixture {
	currentTime := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := &currentTime

	users := newFakeUserRepository()
	cache := newFakeSessionCache()
	mailer := &fakeEmailSender{}

	codec := sec.NewTokenCodecWithClock("learnio.app", func() time.Time { return *clock })
	service := auth.NewService(users, cache, mailer, codec, testSettings)

	return &serviceFixture{service: service, users: users, cache: cache, mailer: mailer, clock: clock}
}

// registerAndActivate walks a user through the full enrollment flow.
func (fixture *serviceFixture) registerAndActivate(t *testing.T, email, password string) {
	t.Helper()
	ctx := context.Background()

	token, err := fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Quang", Email: email, Password: password,
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Activate(ctx, token, fixture.mailer.lastCode))
}

// # Registration

/*
TestService_Register verifies the staging of a new account.
*/
func TestService_Register(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()

	token, err := fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The code was emailed and is exactly four digits in [1000, 9000).
	assert.Equal(t, "quang@learnio.app", fixture.mailer.lastEmail)
	assert.Len(t, fixture.mailer.lastCode, 4)

	// The account exists but cannot do anything yet.
	user, err := fixture.users.FindByEmail(ctx, "quang@learnio.app")
	require.NoError(t, err)
	assert.False(t, user.IsActivated)
	assert.Equal(t, sec.RoleUser, user.Role)

	// The password is hashed, never stored in the clear.
	assert.NotEqual(t, "super-secret-pw", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("super-secret-pw", user.PasswordHash))
}

/*
TestService_Register_DuplicateEmail verifies the uniqueness conflict.
*/
func TestService_Register_DuplicateEmail(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()

	_, err := fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	_, err = fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Impostor", Email: "quang@learnio.app", Password: "other-password",
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

/*
TestService_Register_MailerDown verifies that a failed delivery aborts the
registration before anything is persisted, so a retry is possible.
*/
func TestService_Register_MailerDown(t *testing.T) {
	fixture := newServiceFixture()
	fixture.mailer.failSend = true
	ctx := context.Background()

	_, err := fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw",
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", ae.Code)

	// Nothing was persisted; the same email can register again.
	_, err = fixture.users.FindByEmail(ctx, "quang@learnio.app")
	assert.Error(t, err)
}

// # Activation

/*
TestService_Activate covers the code comparison and the activated flip.
*/
func TestService_Activate(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()

	token, err := fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	// Wrong code is rejected and the account stays inactive.
	err = fixture.service.Activate(ctx, token, "0000")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)

	user, _ := fixture.users.FindByEmail(ctx, "quang@learnio.app")
	assert.False(t, user.IsActivated)

	// Correct code activates.
	require.NoError(t, fixture.service.Activate(ctx, token, fixture.mailer.lastCode))
	user, _ = fixture.users.FindByEmail(ctx, "quang@learnio.app")
	assert.True(t, user.IsActivated)

	// Replaying with the still-valid token is a harmless no-op.
	assert.NoError(t, fixture.service.Activate(ctx, token, fixture.mailer.lastCode))
}

/*
TestService_Activate_ExpiredToken verifies the 10-minute activation deadline.
*/
func TestService_Activate_ExpiredToken(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()

	token, err := fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	*fixture.clock = fixture.clock.Add(auth.ActivationTokenTTL + time.Second)

	err = fixture.service.Activate(ctx, token, fixture.mailer.lastCode)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

/*
TestService_Activate_ForgedToken verifies that tokens signed under another
secret are rejected.
*/
func TestService_Activate_ForgedToken(t *testing.T) {
	fixture := newServiceFixture()

	forgedCodec := sec.NewTokenCodec("learnio.app")
	forged, err := forgedCodec.MintActivation("Quang", "quang@learnio.app", "1234", "wrong-secret", time.Hour)
	require.NoError(t, err)

	err = fixture.service.Activate(context.Background(), forged, "1234")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

// # Login

/*
TestService_Login verifies the happy path: snapshot cached, credentials minted
under their respective secrets.
*/
func TestService_Login(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)
	require.NotNil(t, session.User)

	// The snapshot is in the cache, sanitized by construction.
	identity, err := fixture.cache.Get(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "quang@learnio.app", identity.Email)
	assert.True(t, identity.IsActivated)

	// Both credentials verify through the guard adapter paths.
	userID, err := fixture.service.VerifyAccess(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, userID)

	// The refresh credential is NOT a valid access credential.
	_, err = fixture.service.VerifyAccess(session.RefreshToken)
	assert.Error(t, err)
}

/*
TestService_Login_EnumerationSafe verifies that an unknown email and a wrong
password produce byte-identical errors.
*/
func TestService_Login_EnumerationSafe(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	ctx := context.Background()

	_, unknownErr := fixture.service.Login(ctx, auth.LoginInput{
		Email: "nobody@learnio.app", Password: "whatever",
	})
	_, wrongPwErr := fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "wrong-password",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongPwErr)
	assert.Equal(t, unknownErr.Error(), wrongPwErr.Error())

	ae := apperr.As(unknownErr)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}

/*
TestService_Login_StoreOutage verifies that an unreachable user store
surfaces as a degraded dependency, never as wrong credentials.
*/
func TestService_Login_StoreOutage(t *testing.T) {
	fixture := newServiceFixture()
	fixture.users.findErr = apperr.DependencyUnavailable("Database", errors.New("statement timeout"))

	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", ae.Code)
	assert.NotContains(t, err.Error(), "Invalid email or password")
}

/*
TestService_Register_StoreOutage verifies that a failed uniqueness pre-check
aborts registration before the activation email goes out.
*/
func TestService_Register_StoreOutage(t *testing.T) {
	fixture := newServiceFixture()
	fixture.users.findErr = apperr.DependencyUnavailable("Database", errors.New("connection refused"))

	_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw",
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", ae.Code)

	// No email was dispatched for an account that could never be persisted.
	assert.Empty(t, fixture.mailer.lastEmail)
}

/*
TestService_Login_NotActivated verifies that a staged account cannot hold a
session.
*/
func TestService_Login_NotActivated(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()

	_, err := fixture.service.Register(ctx, auth.RegisterInput{
		Name: "Quang", Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	_, err = fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
}

// # Logout & Refresh

/*
TestService_Logout verifies that logout kills the snapshot and is idempotent.
*/
func TestService_Logout(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(ctx, session.User.ID))

	// The guard adapter now reports the session as gone.
	_, err = fixture.service.Identity(ctx, session.User.ID)
	assert.ErrorIs(t, err, middleware.ErrSessionNotFound)

	// Logging out again is a harmless no-op.
	assert.NoError(t, fixture.service.Logout(ctx, session.User.ID))
}

/*
TestService_RefreshAccess verifies rotation of the credential pair.
*/
func TestService_RefreshAccess(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	// Advance time so the rotated credentials carry different timestamps.
	*fixture.clock = fixture.clock.Add(time.Minute)

	refreshed, err := fixture.service.RefreshAccess(ctx, session.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)

	// The rotated access credential verifies.
	userID, err := fixture.service.VerifyAccess(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, userID)
}

/*
TestService_RefreshAccess_AfterLogout verifies that the cache entry is the
source of truth: a valid refresh credential dies with the session.
*/
func TestService_RefreshAccess_AfterLogout(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(ctx, session.User.ID))

	_, err = fixture.service.RefreshAccess(ctx, session.RefreshToken)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

/*
TestService_RefreshAccess_WrongKind verifies that an access credential cannot
be replayed as a refresh credential.
*/
func TestService_RefreshAccess_WrongKind(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	_, err = fixture.service.RefreshAccess(ctx, session.AccessToken)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}

/*
TestService_RefreshAccess_ExpiredCredential verifies expiry of the refresh
credential itself.
*/
func TestService_RefreshAccess_ExpiredCredential(t *testing.T) {
	fixture := newServiceFixture()
	fixture.registerAndActivate(t, "quang@learnio.app", "super-secret-pw")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Email: "quang@learnio.app", Password: "super-secret-pw",
	})
	require.NoError(t, err)

	*fixture.clock = fixture.clock.Add(testSettings.RefreshTokenTTL + time.Second)

	_, err = fixture.service.RefreshAccess(ctx, session.RefreshToken)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}
