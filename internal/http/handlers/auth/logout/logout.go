// Package logout реализует HTTP-обработчик выхода пользователя.
//
// Выданные токены не отзываются, сервер лишь гасит cookie сессии.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
)

// Handler обрабатывает POST /api/v1/logout.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	middlewarectx.ClearSessionCookie(w)
	log.Info("session cookie cleared")

	response.OK(w, r, http.StatusOK, "logged out", nil)
}
