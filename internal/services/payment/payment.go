// Package payment содержит бизнес-логику покупки, подтверждения и отмены
// подписки. Подлинность callback-а провайдера подтверждается только
// HMAC-подписью: других сигналов доверия у callback-а нет.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/paymentprovider"
	"github.com/magabrotheeeer/course-platform/internal/storage"
)

// UserRepository описывает операции хранилища, нужные платёжному сервису.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateSubscription(ctx context.Context, userUID string, providerID *string, status string) error
	UpdateSubscriptionStatus(ctx context.Context, userUID, status string) error
	SavePayment(ctx context.Context, p models.Payment) (bool, error)
	ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error)
	CountPayments(ctx context.Context) (int, error)
}

// ProviderClient — клиент платёжного провайдера.
type ProviderClient interface {
	KeyID() string
	CreateSubscription(ctx context.Context) (*paymentprovider.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
}

// ProfileCache инвалидирует закэшированные профили после мутаций подписки.
type ProfileCache interface {
	Invalidate(key string) error
}

// PaymentService проверяет подлинность платежей и ведет состояние подписки.
type PaymentService struct {
	repo           UserRepository
	provider       ProviderClient
	cache          ProfileCache
	providerSecret string
	log            *slog.Logger
}

// New создает новый экземпляр PaymentService.
func New(repo UserRepository, provider ProviderClient, cache ProfileCache,
	providerSecret string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:           repo,
		provider:       provider,
		cache:          cache,
		providerSecret: providerSecret,
		log:            log,
	}
}

// ProviderKey возвращает публичный ключ провайдера для клиентской оплаты.
func (s *PaymentService) ProviderKey() string {
	return s.provider.KeyID()
}

// Buy создает подписку у провайдера и сохраняет её идентификатор и статус.
// Администраторам покупка запрещена.
func (s *PaymentService) Buy(ctx context.Context, userUID string) (string, error) {
	const op = "services.payment.Buy"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", apperr.ErrUserNotFound
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.Role == models.RoleAdmin {
		return "", apperr.ErrAdminPurchase
	}

	sub, err := s.provider.CreateSubscription(ctx)
	if err != nil {
		return "", apperr.Wrap(err, http.StatusInternalServerError, "payment provider unavailable, please try again")
	}

	if err := s.repo.UpdateSubscription(ctx, userUID, &sub.ID, sub.Status); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProfile(userUID)

	s.log.Info("subscription created",
		slog.String("user_uid", userUID),
		slog.String("subscription_id", sub.ID),
		slog.String("status", sub.Status))
	return sub.ID, nil
}

// Verify проверяет подпись callback-а провайдера и ровно один раз записывает
// платёж. Подпись пересчитывается как HMAC-SHA256 от "paymentID|subscriptionID"
// c идентификатором подписки, сохранённым на учётной записи; сравнение
// выполняется за постоянное время. Повторный callback с тем же payment_id
// не создает вторую запись: уникальность обеспечивает база.
func (s *PaymentService) Verify(ctx context.Context, userUID, paymentID, signature, subscriptionID string) error {
	const op = "services.payment.Verify"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Subscription.ProviderID == nil {
		s.log.Error("verify called without a created subscription", slog.String("user_uid", userUID))
		return apperr.ErrPaymentNotVerified
	}

	expected := s.signature(paymentID, *user.Subscription.ProviderID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.log.Error("payment signature mismatch",
			slog.String("user_uid", userUID),
			slog.String("payment_id", paymentID))
		return apperr.ErrPaymentNotVerified
	}

	created, err := s.repo.SavePayment(ctx, models.Payment{
		UserUID:        userUID,
		PaymentID:      paymentID,
		Signature:      signature,
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		s.log.Info("duplicate payment callback ignored", slog.String("payment_id", paymentID))
	}

	if err := s.repo.UpdateSubscription(ctx, userUID, user.Subscription.ProviderID, models.SubscriptionActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProfile(userUID)

	s.log.Info("payment verified", slog.String("payment_id", paymentID), slog.String("user_uid", userUID))
	return nil
}

// Unsubscribe отменяет подписку у провайдера и сохраняет возвращённый статус.
func (s *PaymentService) Unsubscribe(ctx context.Context, userUID string) error {
	const op = "services.payment.Unsubscribe"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Role == models.RoleAdmin {
		return apperr.ErrAdminPurchase
	}
	if user.Subscription.ProviderID == nil {
		return apperr.New(http.StatusBadRequest, "no subscription to cancel")
	}

	sub, err := s.provider.CancelSubscription(ctx, *user.Subscription.ProviderID)
	if err != nil {
		return apperr.Wrap(err, http.StatusInternalServerError, "payment provider unavailable, please try again")
	}

	if err := s.repo.UpdateSubscriptionStatus(ctx, userUID, sub.Status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProfile(userUID)

	s.log.Info("subscription cancelled", slog.String("user_uid", userUID), slog.String("status", sub.Status))
	return nil
}

// List возвращает страницу платежей и их общее число.
func (s *PaymentService) List(ctx context.Context, limit, offset int) ([]*models.Payment, int, error) {
	const op = "services.payment.List"

	payments, err := s.repo.ListPayments(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(payments) == 0 {
		return nil, 0, apperr.ErrPaymentsNotFound
	}
	total, err := s.repo.CountPayments(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return payments, total, nil
}

func (s *PaymentService) signature(paymentID, subscriptionID string) string {
	mac := hmac.New(sha256.New, []byte(s.providerSecret))
	mac.Write([]byte(paymentID + "|" + subscriptionID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *PaymentService) invalidateProfile(userUID string) {
	if err := s.cache.Invalidate("user:" + userUID); err != nil {
		s.log.Warn("failed to invalidate profile cache", sl.Err(err))
	}
}
