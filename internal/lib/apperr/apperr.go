// Package apperr определяет единый тип прикладной ошибки с HTTP-статусом
// и публичным сообщением. Ошибки бизнес-уровня доходят до границы HTTP
// в этом виде и отображаются в код ответа только там.
package apperr

import (
	"errors"
	"net/http"
)

// Error — прикладная ошибка с кодом статуса и сообщением для клиента.
// Внутренняя причина (err) в ответ не попадает, только в лог.
type Error struct {
	Status  int
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// New создаёт прикладную ошибку с заданным статусом и сообщением.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap оборачивает внутреннюю причину в прикладную ошибку.
func Wrap(err error, status int, message string) *Error {
	return &Error{Status: status, Message: message, err: err}
}

// Предопределённые ошибки ядра. Сообщения одинаковы для схожих причин,
// чтобы не раскрывать лишнего (например, наличие учётной записи).
var (
	ErrEmailTaken         = New(http.StatusBadRequest, "email already exists")
	ErrInvalidCredentials = New(http.StatusBadRequest, "invalid email or password")
	ErrUnauthenticated    = New(http.StatusUnauthorized, "unauthenticated, please login again")
	ErrForbidden          = New(http.StatusForbidden, "you do not have permission to access this resource")
	ErrSubscribeRequired  = New(http.StatusForbidden, "please subscribe to access this resource")
	ErrUserNotFound       = New(http.StatusNotFound, "user does not exist")
	ErrResetTokenInvalid  = New(http.StatusBadRequest, "reset token is invalid or expired")
	ErrAdminPurchase      = New(http.StatusForbidden, "admin is not allowed to purchase")
	ErrPaymentNotVerified = New(http.StatusBadRequest, "payment not verified, please try again")
	ErrPaymentsNotFound   = New(http.StatusNotFound, "payments not found")
)

// From приводит произвольную ошибку к *Error. Неизвестные причины считаются
// отказом коллаборатора и возвращаются как 500 с нейтральным сообщением.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, http.StatusInternalServerError, "internal service error")
}
