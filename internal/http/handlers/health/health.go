// Package health реализует HTTP-обработчик проверки готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
)

// StorageChecker проверяет доступность хранилища.
type StorageChecker interface {
	CheckDatabaseReady(ctx context.Context) error
}

// Handler обрабатывает GET /health.
type Handler struct {
	log     *slog.Logger
	storage StorageChecker
}

// New создает новый Handler.
func New(log *slog.Logger, storage StorageChecker) *Handler {
	return &Handler{log: log, storage: storage}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := h.storage.CheckDatabaseReady(r.Context()); err != nil {
		h.log.Error("storage is not ready", slog.String("op", op), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	response.OK(w, r, http.StatusOK, "", map[string]any{"status": "ok"})
}
