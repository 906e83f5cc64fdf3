// Package repository implements PostgreSQL persistence for users.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Proton-105/calc-bot/internal/domain"
)

// ErrUserExists is returned by Create when the telegram id is already registered.
var ErrUserExists = errors.New("user already exists")

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateLastActiveAt(ctx context.Context, id int64) error
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	if log == nil {
		log = slog.Default()
	}

	return &userRepository{
		db:  db,
		log: log,
		now: time.Now,
	}
}

// FindByID retrieves a user by their Telegram identifier. sql.ErrNoRows is
// returned when the user is not registered.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
		SELECT id, telegram_id, first_name, last_name, username, language_code, last_active_at, created_at
		FROM users
		WHERE telegram_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.LanguageCode,
		&user.LastActiveAt,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		r.log.Error("failed to fetch user by telegram id", slog.Int64("telegram_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select user by telegram id: %w", err)
	}

	return &user, nil
}

// Create persists a new user record and fills its id.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (telegram_id, first_name, last_name, username, language_code, last_active_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now().UTC()
	}
	if user.LastActiveAt.IsZero() {
		user.LastActiveAt = user.CreatedAt
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		user.TelegramID,
		user.FirstName,
		user.LastName,
		user.Username,
		user.LanguageCode,
		user.LastActiveAt,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: telegram id %d", ErrUserExists, user.TelegramID)
		}

		r.log.Error("failed to create user", slog.Int64("telegram_id", user.TelegramID), slog.Any("error", err))
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// UpdateLastActiveAt stamps the user's last activity with the current time.
func (r *userRepository) UpdateLastActiveAt(ctx context.Context, id int64) error {
	const query = `UPDATE users SET last_active_at = $1 WHERE telegram_id = $2`

	res, err := r.db.ExecContext(ctx, query, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update last active: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
