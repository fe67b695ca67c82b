package models

import "time"

// ResetEmail — сообщение для очереди уведомлений о восстановлении пароля.
// Секрет передаётся получателю ровно один раз, в хранилище остаётся
// только его отпечаток.
type ResetEmail struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ResetURL  string    `json:"reset_url"`
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expires_at"`
}
