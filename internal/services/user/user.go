// Package user содержит бизнес-логику чтения профиля с кэшированием.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/storage"
)

// profileTTL — время жизни профиля в кэше.
const profileTTL = 5 * time.Minute

// UserRepository описывает чтение пользователей из хранилища.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// UserService отдает очищенные профили, используя кэш или хранилище.
type UserService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр UserService.
func New(repo UserRepository, cache Cache, log *slog.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Profile возвращает очищенный профиль пользователя.
func (s *UserService) Profile(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.user.Profile"

	cacheKey := "user:" + userUID
	var cached models.User
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("profile cache read failed", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sanitized := user.Sanitized()
	if err := s.cache.Set(cacheKey, sanitized, profileTTL); err != nil {
		s.log.Warn("failed to cache profile", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return &sanitized, nil
}
