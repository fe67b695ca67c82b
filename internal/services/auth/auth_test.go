package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	customjwt "github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/course-platform/internal/lib/password"
	"github.com/magabrotheeeer/course-platform/internal/lib/resettoken"
	"github.com/magabrotheeeer/course-platform/internal/models"
	services "github.com/magabrotheeeer/course-platform/internal/services/auth"
	"github.com/magabrotheeeer/course-platform/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, userUID, oldHash, newHash string) (bool, error) {
	args := m.Called(ctx, userUID, oldHash, newHash)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepoMock) SetResetToken(ctx context.Context, userUID, fingerprint string, expiry time.Time) error {
	args := m.Called(ctx, userUID, fingerprint, expiry)
	return args.Error(0)
}

func (m *UserRepoMock) ClearResetToken(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func (m *UserRepoMock) ClaimResetToken(ctx context.Context, fingerprint, newHash string) (string, error) {
	args := m.Called(ctx, fingerprint, newHash)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) ClearExpiredResetToken(ctx context.Context, fingerprint string) error {
	args := m.Called(ctx, fingerprint)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userUID, role, subscriptionStatus string) (string, error) {
	args := m.Called(userUID, role, subscriptionStatus)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(tokenStr string) (*customjwt.CustomClaims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

// Мок для ResetPublisher
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *UserRepoMock, jwtMock *JwtMakerMock, pub *PublisherMock) *services.AuthService {
	return services.NewAuthService(repo, jwtMock, pub, newNoopLogger(), 15*time.Minute, "https://app.example.com")
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		username   string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "successful registration",
			email:    "Ana@X.com",
			username: "Ana",
			password: "secret1",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "ana@x.com" &&
						user.Name == "Ana" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "secret1" &&
						password.CompareHash(user.PasswordHash, "secret1") == nil &&
						user.Role == models.RoleUser &&
						user.Subscription.Status == models.SubscriptionNone
				})).Return("uid-ana", nil).Once()
				j.On("GenerateToken", "uid-ana", models.RoleUser, models.SubscriptionNone).
					Return("signed.jwt.token", nil).Once()
			},
			wantToken: "signed.jwt.token",
		},
		{
			name:     "duplicate email",
			email:    "ana@x.com",
			username: "Ana",
			password: "secret1",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return("", storage.ErrEmailExists).Once()
			},
			wantErr: apperr.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := newService(repo, jwtMock, new(PublisherMock))

			tt.setupMocks(repo, jwtMock)

			user, token, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, "uid-ana", user.UID)
				// Sanitized-пользователь не несёт хэш пароля.
				assert.Empty(t, user.PasswordHash)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	rawPassword := "correctpassword"
	hash, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	storedUser := &models.User{
		UID:          "uid-1",
		Email:        "ana@x.com",
		Name:         "Ana",
		PasswordHash: hash,
		Role:         models.RoleUser,
		Subscription: models.Subscription{Status: models.SubscriptionActive},
	}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name:     "successful login",
			email:    "ana@x.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "ana@x.com").Return(storedUser, nil).Once()
				j.On("GenerateToken", "uid-1", models.RoleUser, models.SubscriptionActive).
					Return("signed.jwt.token", nil).Once()
			},
		},
		{
			name:     "wrong password",
			email:    "ana@x.com",
			password: "wrongpassword",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "ana@x.com").Return(storedUser, nil).Once()
			},
			wantErr: apperr.ErrInvalidCredentials,
		},
		{
			name:     "unknown email yields the same error",
			email:    "ghost@x.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "ghost@x.com").
					Return(nil, storage.ErrUserNotFound).Once()
			},
			wantErr: apperr.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := newService(repo, jwtMock, new(PublisherMock))

			tt.setupMocks(repo, jwtMock)

			user, token, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "signed.jwt.token", token)
				assert.Empty(t, user.PasswordHash)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	oldPassword := "oldpassword"
	oldHash, err := password.GetHash(oldPassword)
	require.NoError(t, err)

	storedUser := &models.User{
		UID:          "uid-1",
		Email:        "ana@x.com",
		PasswordHash: oldHash,
		Role:         models.RoleUser,
	}

	t.Run("successful change", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(JwtMakerMock), new(PublisherMock))

		repo.On("GetUser", mock.Anything, "uid-1").Return(storedUser, nil).Once()
		repo.On("UpdatePassword", mock.Anything, "uid-1", oldHash, mock.MatchedBy(func(newHash string) bool {
			return password.CompareHash(newHash, "newpassword") == nil
		})).Return(true, nil).Once()

		err := svc.ChangePassword(context.Background(), "uid-1", oldPassword, "newpassword")
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("wrong old password", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(JwtMakerMock), new(PublisherMock))

		repo.On("GetUser", mock.Anything, "uid-1").Return(storedUser, nil).Once()

		err := svc.ChangePassword(context.Background(), "uid-1", "wrongold", "newpassword")
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		repo.AssertExpectations(t)
	})

	t.Run("concurrent password change detected", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(JwtMakerMock), new(PublisherMock))

		repo.On("GetUser", mock.Anything, "uid-1").Return(storedUser, nil).Once()
		repo.On("UpdatePassword", mock.Anything, "uid-1", oldHash, mock.Anything).
			Return(false, nil).Once()

		err := svc.ChangePassword(context.Background(), "uid-1", oldPassword, "newpassword")
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusConflict, appErr.Status)
		repo.AssertExpectations(t)
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	storedUser := &models.User{
		UID:   "uid-1",
		Email: "ana@x.com",
		Name:  "Ana",
		Role:  models.RoleUser,
	}

	t.Run("queues reset email with secret link", func(t *testing.T) {
		repo := new(UserRepoMock)
		pub := new(PublisherMock)
		svc := newService(repo, new(JwtMakerMock), pub)

		repo.On("GetUserByEmail", mock.Anything, "ana@x.com").Return(storedUser, nil).Once()
		repo.On("SetResetToken", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil).Once()
		pub.On("Publish", "password-reset", mock.MatchedBy(func(msg any) bool {
			email, ok := msg.(models.ResetEmail)
			if !ok {
				return false
			}
			// В БД хранится отпечаток, а в письме уходит сам секрет.
			return email.Email == "ana@x.com" &&
				email.Secret != "" &&
				strings.HasPrefix(email.ResetURL, "https://app.example.com/reset-password/") &&
				strings.HasSuffix(email.ResetURL, email.Secret)
		})).Return(nil).Once()

		err := svc.ForgotPassword(context.Background(), "ana@x.com")
		assert.NoError(t, err)

		// Сохранённый отпечаток должен соответствовать отправленному секрету.
		secret := pub.Calls[0].Arguments.Get(1).(models.ResetEmail).Secret
		fingerprint := repo.Calls[1].Arguments.String(2)
		assert.Equal(t, resettoken.Fingerprint(secret), fingerprint)

		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(JwtMakerMock), new(PublisherMock))

		repo.On("GetUserByEmail", mock.Anything, "ghost@x.com").
			Return(nil, storage.ErrUserNotFound).Once()

		err := svc.ForgotPassword(context.Background(), "ghost@x.com")
		assert.ErrorIs(t, err, apperr.ErrUserNotFound)
		repo.AssertExpectations(t)
	})

	t.Run("publish failure rolls back reset fields", func(t *testing.T) {
		repo := new(UserRepoMock)
		pub := new(PublisherMock)
		svc := newService(repo, new(JwtMakerMock), pub)

		repo.On("GetUserByEmail", mock.Anything, "ana@x.com").Return(storedUser, nil).Once()
		repo.On("SetResetToken", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil).Once()
		pub.On("Publish", "password-reset", mock.Anything).
			Return(errors.New("broker is down")).Once()
		repo.On("ClearResetToken", mock.Anything, "uid-1").Return(nil).Once()

		err := svc.ForgotPassword(context.Background(), "ana@x.com")
		require.Error(t, err)

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusInternalServerError, appErr.Status)

		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("rollback survives a cancelled request context", func(t *testing.T) {
		repo := new(UserRepoMock)
		pub := new(PublisherMock)
		svc := newService(repo, new(JwtMakerMock), pub)

		ctx, cancel := context.WithCancel(context.Background())

		repo.On("GetUserByEmail", mock.Anything, "ana@x.com").Return(storedUser, nil).Once()
		repo.On("SetResetToken", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil).Once()
		// Клиент обрывает запрос, пока публикация падает.
		pub.On("Publish", "password-reset", mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(errors.New("broker is down")).Once()
		repo.On("ClearResetToken", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), "uid-1").Return(nil).Once()

		err := svc.ForgotPassword(ctx, "ana@x.com")
		require.Error(t, err)

		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Run("successful reset", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(JwtMakerMock), new(PublisherMock))

		secret, fingerprint, err := resettoken.Generate()
		require.NoError(t, err)

		repo.On("ClaimResetToken", mock.Anything, fingerprint, mock.MatchedBy(func(newHash string) bool {
			return password.CompareHash(newHash, "newpassword") == nil
		})).Return("uid-1", nil).Once()

		err = svc.ResetPassword(context.Background(), secret, "newpassword")
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown or expired secret", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(JwtMakerMock), new(PublisherMock))

		fingerprint := resettoken.Fingerprint("bogussecret")
		repo.On("ClaimResetToken", mock.Anything, fingerprint, mock.Anything).
			Return("", storage.ErrResetNotClaimed).Once()
		repo.On("ClearExpiredResetToken", mock.Anything, fingerprint).Return(nil).Once()

		err := svc.ResetPassword(context.Background(), "bogussecret", "newpassword")
		assert.ErrorIs(t, err, apperr.ErrResetTokenInvalid)
		repo.AssertExpectations(t)
	})

	t.Run("secret is single use", func(t *testing.T) {
		repo := new(UserRepoMock)
		svc := newService(repo, new(JwtMakerMock), new(PublisherMock))

		secret, fingerprint, err := resettoken.Generate()
		require.NoError(t, err)

		repo.On("ClaimResetToken", mock.Anything, fingerprint, mock.Anything).
			Return("uid-1", nil).Once()
		repo.On("ClaimResetToken", mock.Anything, fingerprint, mock.Anything).
			Return("", storage.ErrResetNotClaimed).Once()
		repo.On("ClearExpiredResetToken", mock.Anything, fingerprint).Return(nil).Once()

		require.NoError(t, svc.ResetPassword(context.Background(), secret, "newpassword"))
		err = svc.ResetPassword(context.Background(), secret, "anotherpassword")
		assert.ErrorIs(t, err, apperr.ErrResetTokenInvalid)
		repo.AssertExpectations(t)
	})
}
