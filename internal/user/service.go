// Package user registers Telegram users and tracks their activity.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/domain"
	apperrors "github.com/Proton-105/calc-bot/internal/errors"
	"github.com/Proton-105/calc-bot/internal/repository"
	"github.com/Proton-105/calc-bot/internal/usercache"
)

// Service provides business operations over users. Database calls go through
// a circuit breaker; a Redis cache in front of lookups is optional.
type Service struct {
	repo    repository.UserRepository
	cache   *usercache.Cache
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
	now     func() time.Time
}

// NewService constructs a new Service instance. cache may be nil.
func NewService(repo repository.UserRepository, cache *usercache.Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	breaker := apperrors.NewCircuitBreaker(apperrors.WithStateChange(func(from, to apperrors.State) {
		log.Warn("user repository circuit breaker changed state", slog.String("from", from.String()), slog.String("to", to.String()))
	}))

	return &Service{repo: repo, cache: cache, breaker: breaker, log: log, now: time.Now}
}

// GetOrCreate fetches a user by telegram ID or registers them when missing.
func (s *Service) GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.User, error) {
	if telegramUser == nil {
		return nil, errors.New("telegram user is nil")
	}

	if cached, err := s.cache.Get(ctx, telegramUser.ID); err != nil {
		s.log.Warn("user cache lookup failed", slog.Int64("telegram_id", telegramUser.ID), slog.Any("error", err))
	} else if cached != nil {
		return cached, nil
	}

	var found *domain.User
	err := s.breaker.Call(func() error {
		var err error
		found, err = s.repo.FindByID(ctx, telegramUser.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		s.logError("get_or_create.find", telegramUser.ID, err)
		return nil, apperrors.NewDatabaseError(fmt.Errorf("get user: %w", err))
	}

	if found == nil {
		if found, err = s.create(ctx, telegramUser); err != nil {
			return nil, err
		}
	}

	if err := s.cache.Set(ctx, telegramUser.ID, found, usercache.DefaultTTL); err != nil {
		s.log.Warn("user cache store failed", slog.Int64("telegram_id", telegramUser.ID), slog.Any("error", err))
	}

	return found, nil
}

func (s *Service) create(ctx context.Context, telegramUser *telebot.User) (*domain.User, error) {
	now := s.now().UTC()
	newUser := &domain.User{
		TelegramID:   telegramUser.ID,
		FirstName:    telegramUser.FirstName,
		LastName:     telegramUser.LastName,
		Username:     telegramUser.Username,
		LanguageCode: telegramUser.LanguageCode,
		LastActiveAt: now,
		CreatedAt:    now,
	}

	exists := false
	err := s.breaker.Call(func() error {
		err := s.repo.Create(ctx, newUser)
		if errors.Is(err, repository.ErrUserExists) {
			exists = true
			return nil
		}
		return err
	})
	if err != nil {
		s.logError("get_or_create.create", telegramUser.ID, err)
		return nil, apperrors.NewDatabaseError(fmt.Errorf("create user: %w", err))
	}

	if exists {
		// A concurrent update registered the user first.
		existing, err := s.repo.FindByID(ctx, telegramUser.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError(fmt.Errorf("get user: %w", err))
		}
		return existing, nil
	}

	s.log.Info("registered new user", slog.Int64("telegram_id", telegramUser.ID))
	return newUser, nil
}

// UpdateLastActive refreshes the last_active_at field for the user.
func (s *Service) UpdateLastActive(ctx context.Context, userID int64) error {
	err := s.breaker.Call(func() error {
		return s.repo.UpdateLastActiveAt(ctx, userID)
	})
	if err != nil {
		s.logError("update_last_active", userID, err)
		return err
	}

	if err := s.cache.Touch(ctx, userID, s.now()); err != nil {
		s.log.Warn("user cache touch failed", slog.Int64("telegram_id", userID), slog.Any("error", err))
	}

	return nil
}

func (s *Service) logError(operation string, telegramID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("user service operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
