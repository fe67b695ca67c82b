// Package models содержит доменную модель пользователя платформы,
// включающую данные учётной записи, хэш пароля, роль, встроенную подписку
// и поля восстановления пароля. Структуры используются в бизнес-логике
// и при работе с хранилищем.
package models

import "time"

// Роли пользователей платформы.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Статусы подписки, отражающие состояние на стороне платёжного провайдера.
const (
	SubscriptionNone      = "none"
	SubscriptionCreated   = "created"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Subscription — встроенное состояние подписки пользователя.
// Статус active подразумевает ненулевой ProviderID.
type Subscription struct {
	ProviderID *string `json:"provider_id,omitempty"` // Идентификатор подписки у провайдера
	Status     string  `json:"status"`
}

// User представляет зарегистрированного пользователя платформы.
type User struct {
	UID          string       `json:"uid"`   // Уникальный идентификатор пользователя
	Email        string       `json:"email"` // Электронная почта (уникальная, в нижнем регистре)
	Name         string       `json:"name"`  // Отображаемое имя
	AvatarURL    string       `json:"avatar_url"`
	PasswordHash string       `json:"-"` // Хэш пароля, наружу не сериализуется
	Role         string       `json:"role"`
	Subscription Subscription `json:"subscription"`

	// Поля восстановления пароля: либо оба nil, либо оба заполнены.
	ResetTokenFingerprint *string    `json:"-"`
	ResetTokenExpiry      *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Sanitized возвращает копию пользователя без чувствительных полей.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.ResetTokenFingerprint = nil
	u.ResetTokenExpiry = nil
	return u
}
