// Package paymentprovider содержит HTTP-клиент платёжного провайдера
// для создания и отмены подписок. Подлинность callback-ов провайдера
// проверяется отдельно, HMAC-подписью в сервисе платежей.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	keyID      string
	keySecret  string
	apiURL     string
	planID     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент провайдера с basic-авторизацией по паре ключей.
func NewClient(keyID, keySecret, planID, apiURL string) *Client {
	return &Client{
		keyID:      keyID,
		keySecret:  keySecret,
		planID:     planID,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyID возвращает публичный идентификатор ключа для клиентской стороны.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.keyID + ":" + c.keySecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	// Провайдер не выполнит один и тот же запрос дважды с одним ключом.
	req.Header.Set("Idempotence-Key", uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// CreateSubscription создает подписку на сконфигурированный тариф.
func (c *Client) CreateSubscription(ctx context.Context) (*Subscription, error) {
	req, err := c.newRequest(ctx, "POST", "/subscriptions", CreateSubscriptionRequest{
		PlanID:         c.planID,
		CustomerNotify: 1,
		TotalCount:     12,
	})
	if err != nil {
		return nil, err
	}

	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription отменяет подписку по её идентификатору у провайдера.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	req, err := c.newRequest(ctx, "POST", "/subscriptions/"+subscriptionID+"/cancel", nil)
	if err != nil {
		return nil, err
	}

	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
