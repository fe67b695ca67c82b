// Package courseplatform предоставляет маршруты основного приложения.
package courseplatform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/changepassword"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/health"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/payment/paymentkey"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/payment/paymentsubscribe"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/payment/paymentunsubscribe"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/payment/paymentverify"
	"github.com/magabrotheeeer/course-platform/internal/http/handlers/user/profile"
	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/course-platform/internal/models"
	authservice "github.com/magabrotheeeer/course-platform/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/course-platform/internal/services/payment"
	userservice "github.com/magabrotheeeer/course-platform/internal/services/user"
	"github.com/magabrotheeeer/course-platform/internal/storage"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *storage.Storage, jwtMaker jwt.Maker,
	authService *authservice.AuthService, paymentService *paymentservice.PaymentService,
	userService *userservice.UserService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки с ограничением частоты
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(5), 10))
			r.Post("/register", register.New(logger, authService).ServeHTTP)
			r.Post("/login", login.New(logger, authService).ServeHTTP)
			r.Post("/forgot-password", forgotpassword.New(logger, authService).ServeHTTP)
			r.Post("/reset-password/{token}", resetpassword.New(logger, authService).ServeHTTP)
		})
		r.Post("/logout", logout.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Get("/me", profile.New(logger, userService).ServeHTTP)
			r.Post("/change-password", changepassword.New(logger, authService).ServeHTTP)
			r.Get("/payments/key", paymentkey.New(logger, paymentService).ServeHTTP)
			r.Post("/payments/subscribe", paymentsubscribe.New(logger, paymentService).ServeHTTP)
			r.Post("/payments/verify", paymentverify.New(logger, paymentService).ServeHTTP)
			r.Post("/payments/unsubscribe", paymentunsubscribe.New(logger, paymentService).ServeHTTP)

			// Только для администраторов
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RolesMiddleware(logger, models.RoleAdmin))
				r.Get("/payments/list", paymentlist.New(logger, paymentService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
