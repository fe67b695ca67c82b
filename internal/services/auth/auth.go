// Package services содержит логику бизнес-уровня для регистрации,
// аутентификации и жизненного цикла пароля.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/course-platform/internal/lib/password"
	"github.com/magabrotheeeer/course-platform/internal/lib/resettoken"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/storage"
)

// defaultAvatarURL — аватар-заглушка для новых учётных записей.
const defaultAvatarURL = "https://static.course-platform.dev/avatars/placeholder.png"

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// UpdatePassword условно заменяет хэш пароля; false — прежний хэш не совпал.
	UpdatePassword(ctx context.Context, userUID, oldHash, newHash string) (bool, error)
	// SetResetToken записывает отпечаток секрета восстановления и срок его действия.
	SetResetToken(ctx context.Context, userUID, fingerprint string, expiry time.Time) error
	// ClearResetToken обнуляет поля восстановления пароля.
	ClearResetToken(ctx context.Context, userUID string) error
	// ClaimResetToken атомарно завершает сброс пароля и возвращает UID.
	ClaimResetToken(ctx context.Context, fingerprint, newHash string) (string, error)
	// ClearExpiredResetToken очищает просроченные поля восстановления по отпечатку.
	ClearExpiredResetToken(ctx context.Context, fingerprint string) error
}

// ResetPublisher публикует сообщение о восстановлении пароля в очередь уведомлений.
type ResetPublisher interface {
	Publish(routingKey string, message any) error
}

// AuthService отвечает за регистрацию, авторизацию и жизненный цикл пароля.
type AuthService struct {
	users           UserRepository
	jwtMaker        jwt.Maker
	publisher       ResetPublisher
	log             *slog.Logger
	resetTokenTTL   time.Duration
	frontendBaseURL string
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, publisher ResetPublisher,
	log *slog.Logger, resetTokenTTL time.Duration, frontendBaseURL string) *AuthService {
	return &AuthService{
		users:           users,
		jwtMaker:        jwtMaker,
		publisher:       publisher,
		log:             log,
		resetTokenTTL:   resetTokenTTL,
		frontendBaseURL: frontendBaseURL,
	}
}

// Register создает нового пользователя с хэшированием пароля, дефолтной ролью USER
// и подпиской в статусе none. Возвращает очищенного пользователя и bearer-токен.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*models.User, string, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:        normalizeEmail(email),
		Name:         name,
		AvatarURL:    defaultAvatarURL,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		Subscription: models.Subscription{Status: models.SubscriptionNone},
	}

	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrEmailExists) {
			return nil, "", apperr.ErrEmailTaken
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid

	token, err := s.jwtMaker.GenerateToken(uid, user.Role, user.Subscription.Status)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	sanitized := user.Sanitized()
	return &sanitized, token, nil
}

// Login проверяет пароль пользователя и генерирует bearer-токен.
// Отсутствие учётной записи и несовпадение пароля внешне неразличимы.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, "", apperr.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", apperr.ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Role, user.Subscription.Status)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	sanitized := user.Sanitized()
	return &sanitized, token, nil
}

// ChangePassword меняет пароль аутентифицированного пользователя.
// Замена условная: если хэш успел измениться параллельным сбросом,
// операция не проходит и её нужно повторить.
func (s *AuthService) ChangePassword(ctx context.Context, userUID, oldPassword, newPassword string) error {
	const op = "services.auth.ChangePassword"

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, oldPassword); err != nil {
		return apperr.ErrInvalidCredentials
	}

	newHash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.users.UpdatePassword(ctx, userUID, user.PasswordHash, newHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return apperr.New(http.StatusConflict, "password was changed concurrently, please retry")
	}
	return nil
}

// ForgotPassword генерирует одноразовый секрет восстановления, сохраняет его
// отпечаток со сроком действия и отправляет секрет в очередь уведомлений.
// Если публикация не удалась, поля восстановления этой учётной записи
// очищаются до возврата ошибки.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "services.auth.ForgotPassword"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	secret, fingerprint, err := resettoken.Generate()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	expiry := time.Now().Add(s.resetTokenTTL)

	if err := s.users.SetResetToken(ctx, user.UID, fingerprint, expiry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.ResetEmail{
		Email:     user.Email,
		Name:      user.Name,
		Secret:    secret,
		ResetURL:  strings.TrimRight(s.frontendBaseURL, "/") + "/reset-password/" + secret,
		ExpiresAt: expiry,
	}
	if err := s.publisher.Publish("password-reset", msg); err != nil {
		s.log.Error("failed to publish reset email, rolling back reset fields", sl.Err(err))
		// Откат должен пройти, даже если контекст запроса уже отменён.
		if clearErr := s.users.ClearResetToken(context.WithoutCancel(ctx), user.UID); clearErr != nil {
			s.log.Error("failed to clear reset fields after publish failure", sl.Err(clearErr))
		}
		return apperr.Wrap(err, http.StatusInternalServerError, "failed to send reset email, please try again")
	}

	s.log.Info("reset email queued", slog.String("user_uid", user.UID))
	return nil
}

// ResetPassword завершает восстановление: по отпечатку секрета атомарно
// ставит новый хэш и очищает поля восстановления. Неверный и просроченный
// секреты внешне неразличимы.
func (s *AuthService) ResetPassword(ctx context.Context, rawSecret, newPassword string) error {
	const op = "services.auth.ResetPassword"

	newHash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	fingerprint := resettoken.Fingerprint(rawSecret)
	uid, err := s.users.ClaimResetToken(ctx, fingerprint, newHash)
	if err != nil {
		if errors.Is(err, storage.ErrResetNotClaimed) {
			// Просроченная запись не должна оставаться в состоянии ожидания.
			if clearErr := s.users.ClearExpiredResetToken(ctx, fingerprint); clearErr != nil {
				s.log.Error("failed to clear expired reset fields", sl.Err(clearErr))
			}
			s.log.Info("reset attempt rejected", slog.String("reason", "fingerprint not claimed"))
			return apperr.ErrResetTokenInvalid
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password reset completed", slog.String("user_uid", uid))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
