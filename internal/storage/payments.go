package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// SavePayment сохраняет подтверждённый платёж. Повторная запись с тем же
// payment_id не создаётся: уникальный индекс в базе, а не проверка в
// процессе, поэтому одновременные дубли на разных воркерах безопасны.
// Возвращает true, если запись была создана этим вызовом.
func (s *Storage) SavePayment(ctx context.Context, p models.Payment) (bool, error) {
	const op = "storage.SavePayment"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (user_uid, payment_id, signature, subscription_id)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (payment_id) DO NOTHING
			  RETURNING id`
	var id int
	err := s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.PaymentID, p.Signature, p.SubscriptionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// ListPayments возвращает страницу платежей, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, payment_id, signature, subscription_id, created_at
			  FROM payments
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserUID, &p.PaymentID, &p.Signature,
			&p.SubscriptionID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountPayments возвращает общее число платежей.
func (s *Storage) CountPayments(ctx context.Context) (int, error) {
	const op = "storage.CountPayments"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
