package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

const userColumns = `uid, email, name, avatar_url, password_hash, role,
			      provider_subscription_id, subscription_status,
			      reset_token_fingerprint, reset_token_expiry, created_at`

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Нарушение уникальности email возвращается как ErrEmailExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, name, avatar_url, password_hash, role,
			      subscription_status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Name, user.AvatarURL, user.PasswordHash, user.Role,
		user.Subscription.Status).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrEmailExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по email (в нижнем регистре).
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// UpdatePassword заменяет хэш пароля при совпадении прежнего хэша.
// Условное обновление не даёт одновременному сбросу пароля и смене
// пароля завершиться с рассогласованным итогом.
func (s *Storage) UpdatePassword(ctx context.Context, userUID, oldHash, newHash string) (bool, error) {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET password_hash = $1
			  WHERE uid = $2 AND password_hash = $3`
	res, err := s.DB.ExecContext(ctx, query, newHash, userUID, oldHash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// SetResetToken записывает отпечаток секрета восстановления и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, userUID, fingerprint string, expiry time.Time) error {
	const op = "storage.SetResetToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET reset_token_fingerprint = $1,
			      reset_token_expiry = $2
			  WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, fingerprint, expiry, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClearResetToken обнуляет поля восстановления пароля у пользователя.
// Используется при откате неудавшейся рассылки и после истечения окна.
func (s *Storage) ClearResetToken(ctx context.Context, userUID string) error {
	const op = "storage.ClearResetToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET reset_token_fingerprint = NULL,
			      reset_token_expiry = NULL
			  WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClaimResetToken атомарно завершает сброс пароля: одним UPDATE находит
// запись с действующим отпечатком, ставит новый хэш и очищает поля
// восстановления. Возвращает UID пользователя либо ErrResetNotClaimed.
func (s *Storage) ClaimResetToken(ctx context.Context, fingerprint, newHash string) (string, error) {
	const op = "storage.ClaimResetToken"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET password_hash = $1,
			      reset_token_fingerprint = NULL,
			      reset_token_expiry = NULL
			  WHERE reset_token_fingerprint = $2
			    AND reset_token_expiry > NOW()
			  RETURNING uid`
	var uid string
	err := s.DB.QueryRowContext(ctx, query, newHash, fingerprint).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrResetNotClaimed)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// ClearExpiredResetToken очищает поля восстановления с истёкшим сроком
// по отпечатку. После неудавшейся попытки сброса запись не должна
// оставаться в состоянии ожидания.
func (s *Storage) ClearExpiredResetToken(ctx context.Context, fingerprint string) error {
	const op = "storage.ClearExpiredResetToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET reset_token_fingerprint = NULL,
			      reset_token_expiry = NULL
			  WHERE reset_token_fingerprint = $1
			    AND reset_token_expiry <= NOW()`
	if _, err := s.DB.ExecContext(ctx, query, fingerprint); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscription сохраняет идентификатор подписки провайдера и её статус.
func (s *Storage) UpdateSubscription(ctx context.Context, userUID string, providerID *string, status string) error {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET provider_subscription_id = $1,
			      subscription_status = $2
			  WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, providerID, status, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscriptionStatus обновляет только статус подписки.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, userUID, status string) error {
	const op = "storage.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1
			  WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var providerID, fingerprint sql.NullString
	var resetExpiry sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Name, &u.AvatarURL, &u.PasswordHash,
		&u.Role, &providerID, &u.Subscription.Status, &fingerprint, &resetExpiry,
		&u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if providerID.Valid {
		u.Subscription.ProviderID = &providerID.String
	}
	if fingerprint.Valid {
		u.ResetTokenFingerprint = &fingerprint.String
	}
	if resetExpiry.Valid {
		u.ResetTokenExpiry = &resetExpiry.Time
	}
	return u, nil
}
