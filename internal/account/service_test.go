// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangdang46/learnio/internal/account"
	"github.com/quangdang46/learnio/internal/auth"
	"github.com/quangdang46/learnio/internal/platform/apperr"
	"github.com/quangdang46/learnio/internal/platform/sec"
)

// # Test Doubles

type fakeAccountRepository struct {
	users map[string]*auth.User
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{users: make(map[string]*auth.User)}
}

func (repository *fakeAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, found := repository.users[id]
	if !found {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *fakeAccountRepository) Update(_ context.Context, user *auth.User) error {
	if _, found := repository.users[user.ID]; !found {
		return apperr.NotFound("User")
	}
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *fakeAccountRepository) List(_ context.Context) ([]*auth.User, error) {
	users := make([]*auth.User, 0, len(repository.users))
	for _, user := range repository.users {
		clone := *user
		users = append(users, &clone)
	}
	return users, nil
}

func (repository *fakeAccountRepository) Delete(_ context.Context, id string) error {
	if _, found := repository.users[id]; !found {
		return apperr.NotFound("User")
	}
	delete(repository.users, id)
	return nil
}

type fakeSessionCache struct {
	snapshots map[string]*sec.Identity
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{snapshots: make(map[string]*sec.Identity)}
}

func (cache *fakeSessionCache) Put(_ context.Context, identity *sec.Identity, _ time.Duration) error {
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

type fakeAvatarStorage struct {
	objects map[string][]byte
}

func newFakeAvatarStorage() *fakeAvatarStorage {
	return &fakeAvatarStorage{objects: make(map[string][]byte)}
}

func (storage *fakeAvatarStorage) Upload(_ context.Context, key, _ string, payload []byte) (string, error) {
	storage.objects[key] = payload
	return "https://cdn.learnio.app/" + key, nil
}

func (storage *fakeAvatarStorage) Delete(_ context.Context, key string) error {
	delete(storage.objects, key)
	return nil
}

// # Fixture

type accountFixture struct {
	service *account.Service
	users   *fakeAccountRepository
	cache   *fakeSessionCache
	avatars *fakeAvatarStorage
}

func newAccountFixture() *accountFixture {
	users := newFakeAccountRepository()
	cache := newFakeSessionCache()
	avatars := newFakeAvatarStorage()

	service := account.NewService(users, cache, avatars, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &accountFixture{service: service, users: users, cache: cache, avatars: avatars}
}

// seedUser persists a user; loggedIn also plants a session snapshot.
func (fixture *accountFixture) seedUser(id string, loggedIn bool) *auth.User {
	user := &auth.User{
		ID:          id,
		Name:        "Quang",
		Email:       "quang@learnio.app",
		Role:        sec.RoleUser,
		IsActivated: true,
	}
	fixture.users.users[id] = user

	if loggedIn {
		fixture.cache.snapshots[id] = user.Identity()
	}
	return user
}

// # Profile

/*
TestService_GetProfile_CacheFirst verifies that a logged-in user is served from
the session cache.
*/
func TestService_GetProfile_CacheFirst(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-123", true)

	// Divergence between cache and storage exposes which one was read.
	fixture.cache.snapshots["user-123"].Name = "Cached Name"

	identity, err := fixture.service.GetProfile(context.Background(), "user-123")
	require.NoError(t, err)
	assert.Equal(t, "Cached Name", identity.Name)
}

/*
TestService_GetProfile_Fallback verifies the storage fallback for a user
without a live session.
*/
func TestService_GetProfile_Fallback(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-123", false)

	identity, err := fixture.service.GetProfile(context.Background(), "user-123")
	require.NoError(t, err)
	assert.Equal(t, "Quang", identity.Name)
	assert.Equal(t, "user-123", identity.UserID)
}

/*
TestService_GetProfile_Unknown verifies the not-found path.
*/
func TestService_GetProfile_Unknown(t *testing.T) {
	fixture := newAccountFixture()

	_, err := fixture.service.GetProfile(context.Background(), "nobody")

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

/*
TestService_UpdateProfile verifies persistence plus the snapshot mirror.
*/
func TestService_UpdateProfile(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-123", true)
	ctx := context.Background()

	newName := "Quang D."
	user, err := fixture.service.UpdateProfile(ctx, "user-123", account.UpdateProfileInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Quang D.", user.Name)

	// Storage has the new name.
	stored, _ := fixture.users.FindByID(ctx, "user-123")
	assert.Equal(t, "Quang D.", stored.Name)

	// The session snapshot was refreshed, so the guard sees it immediately.
	snapshot, err := fixture.cache.Get(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, "Quang D.", snapshot.Name)
}

/*
TestService_UpdateProfile_NoSession verifies that a user without a live
session is updated without planting a snapshot.
*/
func TestService_UpdateProfile_NoSession(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-123", false)
	ctx := context.Background()

	newName := "Quang D."
	_, err := fixture.service.UpdateProfile(ctx, "user-123", account.UpdateProfileInput{Name: &newName})
	require.NoError(t, err)

	// No session existed, none must appear.
	_, err = fixture.cache.Get(ctx, "user-123")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

/*
TestService_UpdateProfile_NilName verifies that an empty patch changes nothing.
*/
func TestService_UpdateProfile_NilName(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-123", false)

	user, err := fixture.service.UpdateProfile(context.Background(), "user-123", account.UpdateProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, "Quang", user.Name)
}

/*
TestService_UpdateAvatar verifies upload, URL persistence and snapshot mirror.
*/
func TestService_UpdateAvatar(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-123", true)
	ctx := context.Background()

	avatarURL, err := fixture.service.UpdateAvatar(ctx, "user-123", "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.learnio.app/avatars/user-123", avatarURL)

	// The object landed under the per-user key.
	assert.Contains(t, fixture.avatars.objects, "avatars/user-123")

	// URL persisted and mirrored.
	stored, _ := fixture.users.FindByID(ctx, "user-123")
	assert.Equal(t, avatarURL, stored.AvatarURL)

	snapshot, err := fixture.cache.Get(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, avatarURL, snapshot.AvatarURL)
}

// # Administration

/*
TestService_ListUsers verifies the listing.
*/
func TestService_ListUsers(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-1", false)
	fixture.seedUser("user-2", false)

	users, err := fixture.service.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

/*
TestService_DeleteUser verifies removal of the row, the session and the avatar.
*/
func TestService_DeleteUser(t *testing.T) {
	fixture := newAccountFixture()
	fixture.seedUser("user-123", true)
	fixture.avatars.objects["avatars/user-123"] = []byte{1}
	ctx := context.Background()

	require.NoError(t, fixture.service.DeleteUser(ctx, "user-123"))

	// Row gone.
	_, err := fixture.users.FindByID(ctx, "user-123")
	assert.Error(t, err)

	// Session gone: outstanding credentials die with the account.
	_, err = fixture.cache.Get(ctx, "user-123")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	// Avatar object cleaned up.
	assert.NotContains(t, fixture.avatars.objects, "avatars/user-123")
}

/*
TestService_DeleteUser_Unknown verifies the not-found path.
*/
func TestService_DeleteUser_Unknown(t *testing.T) {
	fixture := newAccountFixture()

	err := fixture.service.DeleteUser(context.Background(), "nobody")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}
