package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(settings Settings) (*Breaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := New("test", settings)
	b.now = c.now
	b.expiry = c.t.Add(b.settings.Interval)
	return b, c
}

func call(b *Breaker, err error) error {
	_, got := Execute(b, func() (string, error) {
		if err != nil {
			return "", err
		}
		return "ok", nil
	})
	return got
}

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		results  []error
		expected State
	}{
		{"stays closed on successes", []error{nil, nil, nil}, StateClosed},
		{"opens after consecutive failures", []error{errFailed, errFailed, errFailed}, StateOpen},
		{"success resets the streak", []error{errFailed, errFailed, nil, errFailed}, StateClosed},
		{"cancellation is not a failure", []error{context.Canceled, context.Canceled, context.Canceled}, StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(Settings{ReadyToTrip: tripAfter(3)})
			for _, err := range tt.results {
				_ = call(b, err)
			}
			assert.Equal(t, tt.expected, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b, _ := newTestBreaker(Settings{})

	require.NoError(t, call(b, nil))
	assert.Equal(t, Counts{Requests: 1, TotalSuccesses: 1, ConsecutiveSuccesses: 1}, b.Counts())

	assert.ErrorIs(t, call(b, errFailed), errFailed)
	assert.Equal(t, Counts{Requests: 2, TotalSuccesses: 1, TotalFailures: 1, ConsecutiveFailures: 1}, b.Counts())
	assert.InDelta(t, 0.5, b.Counts().FailureRatio(), 0.001)
	assert.Zero(t, Counts{}.FailureRatio())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	b, c := newTestBreaker(Settings{Interval: time.Minute})

	_ = call(b, errFailed)
	c.advance(2 * time.Minute)

	assert.Equal(t, uint32(1), b.Counts().TotalFailures, "counts are cleared lazily")
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, Counts{}, b.Counts())
}

func TestBreakerOpenRejects(t *testing.T) {
	b, _ := newTestBreaker(Settings{ReadyToTrip: tripAfter(2)})

	_ = call(b, errFailed)
	_ = call(b, errFailed)
	require.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	ran := false
	_, err := Execute(b, func() (int, error) {
		ran = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestBreakerHalfOpen(t *testing.T) {
	t.Run("successes close it", func(t *testing.T) {
		b, c := newTestBreaker(Settings{MaxRequests: 2, Timeout: time.Second, ReadyToTrip: tripAfter(2)})
		_ = call(b, errFailed)
		_ = call(b, errFailed)

		c.advance(2 * time.Second)
		require.Equal(t, StateHalfOpen, b.State())

		require.NoError(t, call(b, nil))
		assert.Equal(t, StateHalfOpen, b.State())
		require.NoError(t, call(b, nil))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("a failure reopens it", func(t *testing.T) {
		b, c := newTestBreaker(Settings{MaxRequests: 2, Timeout: time.Second, ReadyToTrip: tripAfter(2)})
		_ = call(b, errFailed)
		_ = call(b, errFailed)
		c.advance(2 * time.Second)

		_ = call(b, errFailed)
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("limits trial requests", func(t *testing.T) {
		b, c := newTestBreaker(Settings{MaxRequests: 1, Timeout: time.Second, ReadyToTrip: tripAfter(1)})
		_ = call(b, errFailed)
		c.advance(2 * time.Second)

		release := make(chan struct{})
		done := make(chan error)
		go func() {
			_, err := Execute(b, func() (bool, error) {
				<-release
				return true, nil
			})
			done <- err
		}()

		assert.Eventually(t, func() bool { return b.Counts().Requests == 1 }, time.Second, time.Millisecond)
		assert.ErrorIs(t, call(b, nil), ErrTooManyRequests)
		close(release)
		assert.NoError(t, <-done)
	})
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{ReadyToTrip: tripAfter(1)})

	assert.Panics(t, func() {
		_, _ = Execute(b, func() (int, error) { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	b, c := newTestBreaker(Settings{
		Timeout:     time.Second,
		ReadyToTrip: tripAfter(2),
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "test", name)
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = call(b, errFailed)
	_ = call(b, errFailed)
	c.advance(2 * time.Second)
	_ = call(b, nil)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
	assert.Equal(t, "unknown", State(7).String())
}
