package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/services/user"
	"github.com/magabrotheeeer/course-platform/internal/storage"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	if args.Bool(0) {
		*result.(*models.User) = args.Get(2).(models.User)
	}
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestUserService_Profile(t *testing.T) {
	storedUser := &models.User{
		UID:          "uid-1",
		Email:        "ana@x.com",
		Name:         "Ana",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleUser,
	}

	t.Run("cache miss loads from storage and caches sanitized copy", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		svc := user.New(repo, cache, newNoopLogger())

		cache.On("Get", "user:uid-1", mock.Anything).Return(false, nil).Once()
		repo.On("GetUser", mock.Anything, "uid-1").Return(storedUser, nil).Once()
		cache.On("Set", "user:uid-1", mock.MatchedBy(func(u models.User) bool {
			return u.UID == "uid-1" && u.PasswordHash == ""
		}), mock.Anything).Return(nil).Once()

		got, err := svc.Profile(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, "ana@x.com", got.Email)
		assert.Empty(t, got.PasswordHash)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips storage", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		svc := user.New(repo, cache, newNoopLogger())

		cache.On("Get", "user:uid-1", mock.Anything).
			Return(true, nil, storedUser.Sanitized()).Once()

		got, err := svc.Profile(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, "uid-1", got.UID)
		repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("cache error falls back to storage", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		svc := user.New(repo, cache, newNoopLogger())

		cache.On("Get", "user:uid-1", mock.Anything).
			Return(false, errors.New("redis is down")).Once()
		repo.On("GetUser", mock.Anything, "uid-1").Return(storedUser, nil).Once()
		cache.On("Set", "user:uid-1", mock.Anything, mock.Anything).Return(nil).Once()

		got, err := svc.Profile(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, "uid-1", got.UID)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		svc := user.New(repo, cache, newNoopLogger())

		cache.On("Get", "user:ghost", mock.Anything).Return(false, nil).Once()
		repo.On("GetUser", mock.Anything, "ghost").Return(nil, storage.ErrUserNotFound).Once()

		_, err := svc.Profile(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	})
}
