package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestExecute_RetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(), nil)

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "embed", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecute_DoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(), nil)

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "embed", func(context.Context) error {
		attempts++
		return errPermanent
	}, nil)

	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}

func TestExecute_StopsOnCancelledContext(t *testing.T) {
	exec := NewExecutor(fastConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "embed", func(context.Context) error {
		called = true
		return nil
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestExecute_OpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}, nil)

	errFail := errors.New("unavailable")
	fail := func(context.Context) error { return errFail }

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, exec.Execute(context.Background(), "embed", fail, nil), errFail)
	}

	called := false
	err := exec.Execute(context.Background(), "embed", func(context.Context) error {
		called = true
		return nil
	}, nil)
	assert.True(t, IsCircuitOpen(err))
	assert.False(t, called)

	// Breakers are per operation
	assert.NoError(t, exec.Execute(context.Background(), "other", func(context.Context) error { return nil }, nil))
}

func TestExecute_NilCallback(t *testing.T) {
	assert.Error(t, NewExecutor(DefaultConfig(), nil).Execute(context.Background(), "embed", nil, nil))
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{RetryInitialBackoff: time.Second, RetryMaxBackoff: time.Millisecond}.normalize()

	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryMaxBackoff)
	assert.Equal(t, 2.0, cfg.RetryMultiplier)
	assert.Equal(t, uint32(5), cfg.BreakerMinRequests)
}

func TestExecute_ExhaustedRetriesReportAttempts(t *testing.T) {
	exec := NewExecutor(fastConfig(), nil)

	errTemp := errors.New("503 from embeddings endpoint")
	err := exec.Execute(context.Background(), "embed", func(context.Context) error {
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "embed", exhausted.Operation)
	assert.ErrorIs(t, err, errTemp)
}

func TestCall_ReturnsVectors(t *testing.T) {
	exec := NewExecutor(fastConfig(), nil)

	vectors, err := Call(context.Background(), exec, "embed", func(context.Context) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}}, vectors)

	vectors, err = Call(context.Background(), exec, "embed", func(context.Context) ([][]float32, error) {
		return [][]float32{{1}}, errors.New("bad request")
	}, nil)
	assert.Error(t, err)
	assert.Nil(t, vectors)

	_, err = Call[[][]float32](context.Background(), exec, "embed", nil, nil)
	assert.Error(t, err)
}

func TestBreakerName(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		endpoint string
		want     string
	}{
		{"model and endpoint", "text-embedding-3-small", "https://api.openai.com/v1", "embeddings:text-embedding-3-small@https://api.openai.com/v1"},
		{"trailing slash", "nomic-embed-text", "http://localhost:11434/v1/", "embeddings:nomic-embed-text@http://localhost:11434/v1"},
		{"no endpoint", "nomic-embed-text", "", "embeddings:nomic-embed-text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BreakerName(tt.model, tt.endpoint))
		})
	}
}

func TestExecutor_BreakerState(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, nil)

	a := BreakerName("model-a", "http://a")
	b := BreakerName("model-a", "http://b")
	assert.Equal(t, gobreaker.StateClosed, exec.BreakerState(a))

	_ = exec.Execute(context.Background(), a, func(context.Context) error { return errors.New("down") }, nil)

	assert.Equal(t, gobreaker.StateOpen, exec.BreakerState(a))
	assert.Equal(t, gobreaker.StateClosed, exec.BreakerState(b))
	assert.NoError(t, exec.Execute(context.Background(), b, func(context.Context) error { return nil }, nil))
}
