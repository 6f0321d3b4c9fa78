package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestPolicy_Delay(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 800*time.Millisecond, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(30))

	assert.Equal(t, time.Duration(0), Policy{}.Delay(2))
}

func TestPolicy_DoSucceedsAfterRetries(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	attempts, err := p.Do(context.Background(), "test", func(ctx context.Context, attempt int) error {
		assert.Equal(t, calls, attempt)
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestPolicy_DoExhausted(t *testing.T) {
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	attempts, err := p.Do(context.Background(), "test", func(ctx context.Context, attempt int) error {
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, attempts)
}

func TestPolicy_DoNotRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
	}
	attempts, err := p.Do(context.Background(), "test", func(ctx context.Context, attempt int) error {
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestPolicy_DoContextCancelled(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	attempts, err := p.Do(ctx, "test", func(ctx context.Context, attempt int) error {
		return errTransient
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNoRetry(t *testing.T) {
	calls := 0
	attempts, err := NoRetry.Do(context.Background(), "test", func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}
