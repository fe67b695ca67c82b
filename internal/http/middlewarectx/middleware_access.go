package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
)

// RolesMiddleware возвращает HTTP middleware, который пропускает запрос только
// если роль из контекста входит в allowed. Иначе возвращает 403 Forbidden.
// Должен стоять после JWTMiddleware.
func RolesMiddleware(log *slog.Logger, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RolesMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			role, ok := r.Context().Value(Role).(string)
			if !ok {
				log.Error("role is missing from context")
				response.Fail(w, r, apperr.ErrUnauthenticated)
				return
			}
			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Info("role denied", slog.String("role", role))
			response.Fail(w, r, apperr.ErrForbidden)
		})
	}
}

// SubscriberMiddleware возвращает HTTP middleware, который требует активную
// подписку. ADMIN проходит без проверки подписки. Должен стоять после
// JWTMiddleware.
func SubscriberMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriberMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			role, ok := r.Context().Value(Role).(string)
			if !ok {
				log.Error("role is missing from context")
				response.Fail(w, r, apperr.ErrUnauthenticated)
				return
			}
			// Проверка роли идёт до проверки подписки.
			if role == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			status, ok := r.Context().Value(SubscriptionStatus).(string)
			if !ok || status != models.SubscriptionActive {
				log.Info("subscription required", slog.String("status", status))
				response.Fail(w, r, apperr.ErrSubscribeRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
