// Package paymentverify реализует HTTP-обработчик проверки подписи платежа.
package paymentverify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
)

// Request — данные платежа, возвращенные провайдером фронтенду.
type Request struct {
	PaymentID      string `json:"payment_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
	SubscriptionID string `json:"subscription_id" validate:"required"`
}

// Service описывает сервис проверки платежа.
type Service interface {
	Verify(ctx context.Context, userUID, paymentID, signature, subscriptionID string) error
}

// Handler обрабатывает POST /api/v1/payments/verify.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP сверяет подпись платежа и активирует подписку.
//
// @Summary      Проверка платежа
// @Description  Сверяет HMAC-подпись платежа и активирует подписку пользователя
// @Tags         payment
// @Accept       json
// @Produce      json
// @Param        request body Request true "Данные платежа"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.ErrorResponse
// @Router       /payments/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Error("validation failed", sl.Err(err))
			response.ValidationError(w, r, verrs)
			return
		}
		log.Error("validation failed", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.service.Verify(r.Context(), userUID, req.PaymentID, req.Signature, req.SubscriptionID); err != nil {
		if !errors.Is(err, apperr.ErrPaymentNotVerified) {
			log.Error("payment verification failed", sl.Err(err))
		}
		response.Fail(w, r, err)
		return
	}
	log.Info("payment verified", slog.String("payment_id", req.PaymentID))

	response.OK(w, r, http.StatusOK, "payment verified", nil)
}
