// Package login реализует HTTP-обработчик входа пользователя.
package login

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
	"github.com/magabrotheeeer/course-platform/internal/models"
)

// Request — входные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// Service описывает сервис входа.
type Service interface {
	Login(ctx context.Context, email, rawPassword string) (*models.User, string, error)
}

// Handler обрабатывает POST /api/v1/login.
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

// ServeHTTP обрабатывает HTTP-запрос на вход.
//
// @Summary      Вход пользователя
// @Description  Проверяет учетные данные, выдает JWT-токен и устанавливает cookie сессии
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body Request true "Учетные данные"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.ErrorResponse
// @Router       /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, apperr.ErrInvalidCredentials) {
			log.Error("login failed", sl.Err(err))
		}
		response.Fail(w, r, err)
		return
	}
	log.Info("user logged in", slog.String("uid", user.UID))

	middlewarectx.SetSessionCookie(w, token)
	response.OK(w, r, http.StatusOK, "login successful", map[string]any{
		"user":  user,
		"token": token,
	})
}
