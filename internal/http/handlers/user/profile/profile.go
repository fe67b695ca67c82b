// Package profile реализует HTTP-обработчик получения профиля пользователя.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

// Service описывает сервис профиля пользователя.
type Service interface {
	Profile(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает GET /api/v1/me.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP возвращает профиль текущего пользователя.
//
// @Summary      Профиль текущего пользователя
// @Tags         user
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      401 {object} response.ErrorResponse
// @Router       /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok {
		log.Error("user uid is missing from context")
		response.Fail(w, r, apperr.ErrUnauthenticated)
		return
	}

	user, err := h.service.Profile(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	response.OK(w, r, http.StatusOK, "", map[string]any{"user": user})
}
