// Package middlewarectx содержит HTTP middleware шлюза авторизации.
//
// JWTMiddleware восстанавливает личность запроса из bearer-токена,
// RolesMiddleware и SubscriberMiddleware проверяют роль и подписку по
// claims из контекста. Стадии выполняются по порядку и обрываются на
// первой неудаче; к хранилищу ни одна из них не обращается.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// SubscriptionStatus — ключ для статуса подписки в контексте
	SubscriptionStatus Key = "subscription_status"
)

// SessionCookieName — имя cookie с bearer-токеном.
const SessionCookieName = "token"

// TokenFromRequest извлекает bearer-токен из cookie или заголовка Authorization.
// Cookie — первичный канал, заголовок — эквивалентный запасной.
func TokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer "), true
	}
	return "", false
}

// JWTMiddleware возвращает HTTP middleware, который проверяет bearer-токен запроса.
//
// Если токен валиден, добавляет идентификатор пользователя, роль и статус
// подписки в контекст запроса, иначе возвращает 401 Unauthorized.
// Истёкший и повреждённый токены отклоняются одинаково, но логируются по-разному.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr, ok := TokenFromRequest(r)
			if !ok {
				log.Error("missing bearer token")
				response.Fail(w, r, apperr.ErrUnauthenticated)
				return
			}

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					log.Info("expired token rejected")
				} else {
					log.Error("invalid token rejected", sl.Err(err))
				}
				response.Fail(w, r, apperr.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			ctx = context.WithValue(ctx, SubscriptionStatus, claims.SubscriptionStatus)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
