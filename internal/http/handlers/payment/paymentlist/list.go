// Package paymentlist реализует HTTP-обработчик списка платежей для администратора.
package paymentlist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service описывает сервис списка платежей.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Payment, int, error)
}

// Handler обрабатывает GET /api/v1/payments/list.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := queryInt(r, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	payments, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		if !errors.Is(err, apperr.ErrPaymentsNotFound) {
			log.Error("failed to list payments", sl.Err(err))
		}
		response.Fail(w, r, err)
		return
	}
	log.Info("payments listed", slog.Int("count", len(payments)), slog.Int("total", total))

	response.OK(w, r, http.StatusOK, "", map[string]any{
		"payments": payments,
		"total":    total,
	})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
