package models

import "time"

// Payment представляет подтверждённый платёж провайдера.
// PaymentID уникален: повторный callback с тем же payment_id
// не создаёт вторую запись.
type Payment struct {
	ID             int       `json:"id"`
	UserUID        string    `json:"user_uid"`
	PaymentID      string    `json:"payment_id"`
	Signature      string    `json:"-"`
	SubscriptionID string    `json:"subscription_id"`
	CreatedAt      time.Time `json:"created_at"`
}
