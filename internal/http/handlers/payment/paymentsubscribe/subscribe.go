// Package paymentsubscribe реализует HTTP-обработчик оформления подписки.
package paymentsubscribe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
)

// Service описывает сервис оформления подписки.
type Service interface {
	Buy(ctx context.Context, userUID string) (string, error)
}

// Handler обрабатывает POST /api/v1/payments/subscribe.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP создает подписку у провайдера и возвращает её идентификатор.
//
// @Summary      Оформление подписки
// @Description  Создает подписку у платежного провайдера для текущего пользователя
// @Tags         payment
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      403 {object} response.ErrorResponse
// @Router       /payments/subscribe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.subscribe"

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

	subscriptionID, err := h.service.Buy(r.Context(), userUID)
	if err != nil {
		if !errors.Is(err, apperr.ErrAdminPurchase) {
			log.Error("failed to create subscription", sl.Err(err))
		}
		response.Fail(w, r, err)
		return
	}
	log.Info("subscription created", slog.String("subscription_id", subscriptionID))

	response.OK(w, r, http.StatusOK, "subscription created", map[string]any{
		"subscription_id": subscriptionID,
	})
}
