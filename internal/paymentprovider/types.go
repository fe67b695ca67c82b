package paymentprovider

// CreateSubscriptionRequest — запрос создания подписки у провайдера.
type CreateSubscriptionRequest struct {
	PlanID         string `json:"plan_id"`
	CustomerNotify int    `json:"customer_notify"`
	TotalCount     int    `json:"total_count"`
}

// Subscription — подписка в представлении провайдера.
// Статус приходит в значениях created/active/cancelled.
type Subscription struct {
	ID     string `json:"id"`
	PlanID string `json:"plan_id,omitempty"`
	Status string `json:"status"`
}
