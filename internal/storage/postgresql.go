// Package storage реализует хранилище учётных записей и платежей на основе
// PostgreSQL. Предоставляет методы создания и чтения пользователей,
// условные обновления пароля и полей восстановления, а также
// идемпотентную запись платежей.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки уровня хранилища. Бизнес-уровень отображает их в прикладные.
var (
	// ErrUserNotFound — пользователь не найден по запрошенному полю.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists — нарушение уникальности email при регистрации.
	ErrEmailExists = errors.New("email already exists")
	// ErrResetNotClaimed — нет записи с таким отпечатком и действующим сроком.
	ErrResetNotClaimed = errors.New("reset token not claimed")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}
