// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков. Успешные ответы несут флаг
// success, код статуса, сообщение и полезную нагрузку; ошибки — код и текст.
package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
)

// Response описывает стандартную структуру JSON-ответа сервера.
type Response struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Status  int    `json:"status" example:"400"`
	Error   string `json:"error" example:"invalid request body"`
}

// OK пишет успешный ответ с сообщением и полезной нагрузкой.
func OK(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	render.Status(r, status)
	render.JSON(w, r, Response{
		Success: true,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// Fail приводит ошибку к прикладной и пишет её с соответствующим статусом.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	render.Status(r, appErr.Status)
	render.JSON(w, r, Response{
		Success: false,
		Status:  appErr.Status,
		Error:   appErr.Message,
	})
}

// BadRequest пишет ошибку 400 с заданным сообщением.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Response{
		Success: false,
		Status:  http.StatusBadRequest,
		Error:   msg,
	})
}

// ValidationError формирует ответ 400 на основе ошибок валидации.
// Каждое нарушение формируется в человеко-читаемый текст, объединённый через запятую.
func ValidationError(w http.ResponseWriter, r *http.Request, errs validator.ValidationErrors) {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Response{
		Success: false,
		Status:  http.StatusBadRequest,
		Error:   strings.Join(errsMsgs, ", "),
	})
}
