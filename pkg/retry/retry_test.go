package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	errTransient = errors.New("transient")
	errTerminal  = errors.New("terminal")
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond}
}

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func TestDoRetriesUntilBudgetSpent(t *testing.T) {
	calls := 0
	var waits []time.Duration

	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	}, isTransient, func(err error, attempt int, wait time.Duration) {
		waits = append(waits, wait)
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errTransient
		}
		return nil
	}, isTransient, nil)

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoDoesNotRetryTerminalErrors(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTerminal
	}, isTransient, nil)

	assert.ErrorIs(t, err, errTerminal)
	assert.Equal(t, 1, calls)
}

func TestDoSingleAttempt(t *testing.T) {
	calls := 0
	err := Policy{MaxAttempts: 0}.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	}, isTransient, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
