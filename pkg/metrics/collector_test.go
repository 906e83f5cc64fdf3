package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/calc-bot/internal/calculator"
	apperrors "github.com/Proton-105/calc-bot/internal/errors"
	"github.com/Proton-105/calc-bot/internal/state"
)

type stubLister struct {
	sessions []*state.Session
	err      error
}

func (s stubLister) ListSessions(context.Context) ([]*state.Session, error) {
	return s.sessions, s.err
}

func sessionIn(mode calculator.Mode) *state.Session {
	session := state.NewSession(1, 1)
	session.Calculator.Mode = mode
	return session
}

func TestSessionCollector_Collect(t *testing.T) {
	collector := NewSessionCollector(stubLister{sessions: []*state.Session{
		sessionIn(calculator.ModeIdle),
		sessionIn(calculator.ModeIdle),
		sessionIn(calculator.ModeError),
	}}, time.Second)

	require.NoError(t, collector.Collect(context.Background()))

	assert.Equal(t, 3.0, testutil.ToFloat64(activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(sessionsByState.WithLabelValues("idle")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sessionsByState.WithLabelValues("awaiting_operand")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sessionsByState.WithLabelValues("error")))
}

func TestSessionCollector_CollectError(t *testing.T) {
	failure := errors.New("redis down")
	collector := NewSessionCollector(stubLister{err: failure}, 0)

	assert.ErrorIs(t, collector.Collect(context.Background()), failure)
	assert.Equal(t, defaultCollectInterval, collector.interval)
}

func TestRecordCalculation(t *testing.T) {
	before := testutil.ToFloat64(calculationsTotal.WithLabelValues("divide", "error"))

	RecordCalculation("divide", calculator.ErrDivisionByZero)
	RecordCalculation("divide", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(calculationsTotal.WithLabelValues("divide", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(calculationsTotal.WithLabelValues("divide", "ok")), 1.0)
}

func TestRecordStateTransition_Registered(t *testing.T) {
	before := testutil.ToFloat64(stateTransitionsTotal.WithLabelValues("idle", "awaiting_operand"))

	machine := state.NewStateMachine(memoryStorage{}, nil, nil)
	_, err := machine.Apply(context.Background(), 1, 1, func(calc *calculator.Calculator) error {
		return calc.SetOperator(calculator.OpAdd)
	})
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(stateTransitionsTotal.WithLabelValues("idle", "awaiting_operand")))
}

func TestErrorRecorder(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues("E410", "low"))

	ErrorRecorder()("E410", apperrors.SeverityLow)
	RecordError("", "")

	assert.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues("E410", "low")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(errorsTotal.WithLabelValues("unknown", "unknown")), 1.0)
}

type memoryStorage struct{}

func (memoryStorage) GetSession(context.Context, int64) (*state.Session, error) {
	return nil, state.ErrStateNotFound
}
func (memoryStorage) SaveSession(context.Context, *state.Session) error { return nil }
func (memoryStorage) DeleteSession(context.Context, int64) error         { return nil }
func (memoryStorage) ListSessions(context.Context) ([]*state.Session, error) {
	return nil, nil
}
