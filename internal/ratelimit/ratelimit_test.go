package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDisabled(t *testing.T) {
	assert.Nil(t, New(0, 5, time.Minute))
	assert.Nil(t, New(1, 0, time.Minute))

	var k *Keyed
	assert.True(t, k.Allow("anyone", time.Now()))
	assert.Zero(t, k.RetryAfter("anyone", time.Now()))
	assert.Zero(t, k.Len())
}

func TestAllowBurstThenRefill(t *testing.T) {
	k := New(1, 3, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.True(t, k.Allow("10.0.0.1", now), "attempt %d", i)
	}
	assert.False(t, k.Allow("10.0.0.1", now))
	assert.InDelta(t, time.Second, k.RetryAfter("10.0.0.1", now), float64(10*time.Millisecond))

	// Other keys have their own bucket.
	assert.True(t, k.Allow("10.0.0.2", now))

	assert.True(t, k.Allow("10.0.0.1", now.Add(time.Second)))
}

func TestRetryAfterDoesNotConsume(t *testing.T) {
	k := New(1, 1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, k.RetryAfter("a", now))
	assert.True(t, k.Allow("a", now))
	k.RetryAfter("a", now)
	k.RetryAfter("a", now)
	assert.True(t, k.Allow("a", now.Add(time.Second)))
}

func TestIdleKeysAreSwept(t *testing.T) {
	k := New(10, 10, time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < sweepEvery-1; i++ {
		k.Allow(fmt.Sprintf("old-%d", i), start)
	}
	assert.Equal(t, sweepEvery-1, k.Len())

	k.Allow("fresh", start.Add(2*time.Minute))
	assert.Equal(t, 1, k.Len())
}
