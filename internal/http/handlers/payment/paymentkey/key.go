// Package paymentkey реализует HTTP-обработчик выдачи публичного ключа
// платежного провайдера для фронтенда.
package paymentkey

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/http/response"
)

// Service описывает источник публичного ключа провайдера.
type Service interface {
	ProviderKey() string
}

// Handler обрабатывает GET /api/v1/payments/key.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.key"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	log.Debug("payment key requested")

	response.OK(w, r, http.StatusOK, "", map[string]any{"key": h.service.ProviderKey()})
}
