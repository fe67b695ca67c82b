// Package changepassword реализует HTTP-обработчик смены пароля
// аутентифицированного пользователя.
package changepassword

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

// Request — входные данные для смены пароля.
type Request struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// Service описывает сервис смены пароля.
type Service interface {
	ChangePassword(ctx context.Context, userUID, oldPassword, newPassword string) error
}

// Handler обрабатывает POST /api/v1/change-password.
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
	const op = "handlers.auth.changepassword"

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

	if err := h.service.ChangePassword(r.Context(), userUID, req.OldPassword, req.NewPassword); err != nil {
		if !errors.Is(err, apperr.ErrInvalidCredentials) {
			log.Error("change password failed", sl.Err(err))
		}
		response.Fail(w, r, err)
		return
	}
	log.Info("password changed", slog.String("uid", userUID))

	response.OK(w, r, http.StatusOK, "password updated successfully", nil)
}
