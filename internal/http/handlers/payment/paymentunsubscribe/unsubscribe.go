// Package paymentunsubscribe реализует HTTP-обработчик отмены подписки.
package paymentunsubscribe

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
)

// Service описывает сервис отмены подписки.
type Service interface {
	Unsubscribe(ctx context.Context, userUID string) error
}

// Handler обрабатывает POST /api/v1/payments/unsubscribe.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.unsubscribe"

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

	if err := h.service.Unsubscribe(r.Context(), userUID); err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("subscription cancelled", slog.String("uid", userUID))

	response.OK(w, r, http.StatusOK, "subscription cancelled", nil)
}
