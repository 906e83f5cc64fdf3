package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Proton-105/calc-bot/internal/calculator"
	apperrors "github.com/Proton-105/calc-bot/internal/errors"
)

const (
	userLockKeyPattern = "calc:lock:%d"
	defaultLockTTL     = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a mutation produced a disallowed mode change.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a session record does not exist.
	ErrStateNotFound = errors.New("calculator session not found")
	// ErrStateLocked indicates that a concurrent update already holds the session lock.
	ErrStateLocked = errors.New("session is locked, try again later")
)

// releaseLock deletes the lock only while it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe mode transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Mutation changes a user's calculator. Its error is returned to the caller
// after the resulting state is persisted; calculator failures leave the
// machine consistent, so the state is saved either way.
type Mutation func(calc *calculator.Calculator) error

// StateMachine describes the operations supported by the session controller.
type StateMachine interface {
	// Load returns the stored session or ErrStateNotFound.
	Load(ctx context.Context, userID int64) (*Session, error)
	// Start returns the existing session, creating one when absent. created
	// reports whether a new session was stored.
	Start(ctx context.Context, userID, chatID int64) (session *Session, created bool, err error)
	// Apply runs fn against the user's calculator under the session lock and
	// stores the result. Lock contention is retried with backoff.
	Apply(ctx context.Context, userID, chatID int64, fn Mutation) (*Session, error)
	// Clear removes the user's session.
	Clear(ctx context.Context, userID int64) error
	// ListSessions returns every stored session.
	ListSessions(ctx context.Context) ([]*Session, error)
}

// Option configures the state machine.
type Option func(*machine)

// WithLockTTL bounds how long a crashed holder can block a session.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *machine) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithRetryPolicy sets the backoff used while the session lock is held elsewhere.
func WithRetryPolicy(policy apperrors.RetryPolicy) Option {
	return func(m *machine) {
		m.retry = policy
	}
}

// WithCalculatorOptions sets the options used when restoring calculators.
func WithCalculatorOptions(opts ...calculator.Option) Option {
	return func(m *machine) {
		m.calcOpts = append(m.calcOpts, opts...)
	}
}

// machine is a concrete implementation of StateMachine backed by Storage and Redis locking.
type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
	lockTTL     time.Duration
	retry       apperrors.RetryPolicy
	calcOpts    []calculator.Option
}

// NewStateMachine creates a session controller using the provided storage backend and
// redis client for locking. A nil client disables locking.
func NewStateMachine(storage Storage, log *slog.Logger, redisClient *redis.Client, opts ...Option) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	m := &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
		lockTTL:     defaultLockTTL,
		retry:       apperrors.DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Load proxies to the underlying storage implementation.
func (m *machine) Load(ctx context.Context, userID int64) (*Session, error) {
	return m.storage.GetSession(ctx, userID)
}

// ListSessions returns every persisted session.
func (m *machine) ListSessions(ctx context.Context) ([]*Session, error) {
	return m.storage.ListSessions(ctx)
}

// Start loads or creates the session under the lock.
func (m *machine) Start(ctx context.Context, userID, chatID int64) (*Session, bool, error) {
	var (
		session *Session
		created bool
	)

	err := m.withLock(ctx, userID, func() error {
		stored, err := m.storage.GetSession(ctx, userID)
		switch {
		case err == nil:
			session = stored
			return nil
		case !errors.Is(err, ErrStateNotFound):
			return err
		}

		session = NewSession(userID, chatID)
		if err := m.storage.SaveSession(ctx, session); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return session, created, nil
}

// Apply mutates the calculator if the resulting transition is allowed, guarded by a lock.
func (m *machine) Apply(ctx context.Context, userID, chatID int64, fn Mutation) (*Session, error) {
	if fn == nil {
		return nil, errors.New("mutation is nil")
	}

	var (
		session  *Session
		applyErr error
	)

	err := m.withLock(ctx, userID, func() error {
		var err error
		session, applyErr, err = m.apply(ctx, userID, chatID, fn)
		return err
	})
	if err != nil {
		return nil, err
	}

	return session, applyErr
}

func (m *machine) apply(ctx context.Context, userID, chatID int64, fn Mutation) (*Session, error, error) {
	session, err := m.storage.GetSession(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return nil, nil, err
		}
		session = NewSession(userID, chatID)
	}
	if chatID != 0 {
		session.ChatID = chatID
	}

	var steps [][2]State
	opts := append(m.calcOpts[:len(m.calcOpts):len(m.calcOpts)], calculator.WithModeObserver(func(from, to calculator.Mode) {
		steps = append(steps, [2]State{State(from), State(to)})
	}))

	calc, err := session.Restore(opts...)
	if err != nil {
		m.log.Warn("discarding corrupt calculator session", "user_id", userID, "error", err)
		calc = calculator.New(opts...)
	}

	applyErr := fn(calc)

	// An update may chain several keys, so every intermediate change is checked.
	for _, step := range steps {
		if !IsTransitionAllowed(step[0], step[1]) {
			m.log.Warn("invalid state transition", "user_id", userID, "from", step[0], "to", step[1])
			return nil, nil, ErrInvalidTransition
		}
	}
	for _, step := range steps {
		transitionRecorder(string(step[0]), string(step[1]))
	}

	session.Calculator = calc.Snapshot()
	if err := m.storage.SaveSession(ctx, session); err != nil {
		return nil, nil, err
	}

	return session, applyErr, nil
}

// Clear removes the stored session via the backing storage while holding the lock.
func (m *machine) Clear(ctx context.Context, userID int64) error {
	return m.withLock(ctx, userID, func() error {
		return m.storage.DeleteSession(ctx, userID)
	})
}

func (m *machine) withLock(ctx context.Context, userID int64, fn func() error) error {
	return apperrors.WithRetryPolicy(ctx, m.retry, func() error {
		release, err := m.lock(ctx, userID)
		if err != nil {
			return err
		}
		defer release()

		return fn()
	})
}

func (m *machine) lock(ctx context.Context, userID int64) (func(), error) {
	if m.redisClient == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	token := uuid.NewString()

	acquired, err := m.redisClient.SetNX(ctx, key, token, m.lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire session lock", "user_id", userID, "error", err)
		return nil, err
	}

	if !acquired {
		m.log.Debug("session lock already held", "user_id", userID)
		return nil, apperrors.NewSessionLockError(userID, ErrStateLocked)
	}

	return func() {
		if err := releaseLock.Run(ctx, m.redisClient, []string{key}, token).Err(); err != nil {
			m.log.Error("failed to release session lock", "user_id", userID, "error", err)
		}
	}, nil
}
