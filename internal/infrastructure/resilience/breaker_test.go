package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAction = errors.New("action failed")

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *clock, *[]string) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	var changes []string
	b := New(Settings{
		Threshold: threshold,
		Cooldown:  cooldown,
		Now:       c.Now,
		OnStateChange: func(from, to State) {
			changes = append(changes, from.String()+"->"+to.String())
		},
	})
	return b, c, &changes
}

func fail() error { return errAction }

func succeed() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _, changes := newTestBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Do(fail), errAction)
		assert.Equal(t, Closed, b.State())
	}
	assert.ErrorIs(t, b.Do(fail), errAction)
	assert.Equal(t, Open, b.State())

	calls := 0
	err := b.Do(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.Zero(t, calls, "open breaker must not run the action")
	assert.Equal(t, []string{"closed->open"}, *changes)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b, _, _ := newTestBreaker(2, time.Minute)

	require.Error(t, b.Do(fail))
	require.NoError(t, b.Do(succeed))
	require.Error(t, b.Do(fail))

	assert.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	tests := []struct {
		name    string
		trial   func() error
		want    State
		changes []string
	}{
		{
			name:    "success closes",
			trial:   succeed,
			want:    Closed,
			changes: []string{"closed->open", "open->half_open", "half_open->closed"},
		},
		{
			name:    "failure reopens",
			trial:   fail,
			want:    Open,
			changes: []string{"closed->open", "open->half_open", "half_open->open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, c, changes := newTestBreaker(1, time.Minute)

			require.Error(t, b.Do(fail))
			c.Advance(59 * time.Second)
			assert.ErrorIs(t, b.Do(succeed), ErrOpen)

			c.Advance(time.Second)
			_ = b.Do(tt.trial)

			assert.Equal(t, tt.want, b.State())
			assert.Equal(t, tt.changes, *changes)
		})
	}
}

func TestBreakerSingleTrialWhileHalfOpen(t *testing.T) {
	b, c, _ := newTestBreaker(1, time.Second)
	require.Error(t, b.Do(fail))
	c.Advance(time.Second)

	var inner error
	err := b.Do(func() error {
		inner = b.Do(succeed)
		return nil
	})

	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrOpen)
	assert.Equal(t, Closed, b.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b, _, _ := newTestBreaker(1, time.Minute)

	assert.Panics(t, func() {
		_ = b.Do(func() error { panic("boom") })
	})
	assert.Equal(t, Open, b.State())
}

func TestBreakerDefaults(t *testing.T) {
	b := New(Settings{})
	assert.Equal(t, DefaultThreshold, b.settings.Threshold)
	assert.Equal(t, DefaultCooldown, b.settings.Cooldown)
	assert.Equal(t, Closed, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "half_open", HalfOpen.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "unknown", State(9).String())
}
