// Package register реализует HTTP-обработчик регистрации пользователя.
package register

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

// Request — входные данные для регистрации.
type Request struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Service описывает сервис регистрации.
type Service interface {
	Register(ctx context.Context, name, email, rawPassword string) (*models.User, string, error)
}

// Handler обрабатывает POST /api/v1/register.
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

// ServeHTTP обрабатывает HTTP-запрос на регистрацию.
//
// @Summary      Регистрация пользователя
// @Description  Создает аккаунт, выдает JWT-токен и устанавливает cookie сессии
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body Request true "Данные регистрации"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.ErrorResponse
// @Router       /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	user, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, apperr.ErrEmailTaken) {
			log.Error("registration failed", sl.Err(err))
		}
		response.Fail(w, r, err)
		return
	}
	log.Info("user registered", slog.String("uid", user.UID))

	middlewarectx.SetSessionCookie(w, token)
	response.OK(w, r, http.StatusCreated, "user created successfully", map[string]any{
		"user":  user,
		"token": token,
	})
}
