// Package resetpassword реализует HTTP-обработчик установки нового пароля
// по одноразовому токену из письма.
package resetpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
)

// Request — входные данные для установки нового пароля.
type Request struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Service описывает сервис установки нового пароля.
type Service interface {
	ResetPassword(ctx context.Context, rawSecret, newPassword string) error
}

// Handler обрабатывает POST /api/v1/reset-password/{token}.
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

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rawSecret := chi.URLParam(r, "token")
	if rawSecret == "" {
		log.Error("reset token is missing from url")
		response.Fail(w, r, apperr.ErrResetTokenInvalid)
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

	if err := h.service.ResetPassword(r.Context(), rawSecret, req.Password); err != nil {
		if !errors.Is(err, apperr.ErrResetTokenInvalid) {
			log.Error("reset password failed", sl.Err(err))
		}
		response.Fail(w, r, err)
		return
	}
	log.Info("password reset completed")

	response.OK(w, r, http.StatusOK, "password updated successfully", nil)
}
