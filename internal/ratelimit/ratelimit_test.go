package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLimiter_Allow(t *testing.T) {
	now := time.Now()

	t.Run("allows up to burst then rejects", func(t *testing.T) {
		l := NewKeyLimiter(1.0, 3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, l.allowAt("10.0.0.1", now), "attempt %d should be within burst", i+1)
		}
		assert.False(t, l.allowAt("10.0.0.1", now))
	})

	t.Run("keys are limited independently", func(t *testing.T) {
		l := NewKeyLimiter(1.0, 1, time.Minute)

		assert.True(t, l.allowAt("10.0.0.1", now))
		assert.False(t, l.allowAt("10.0.0.1", now))
		assert.True(t, l.allowAt("10.0.0.2", now))
	})

	t.Run("tokens refill over time", func(t *testing.T) {
		l := NewKeyLimiter(1.0, 1, time.Minute)

		assert.True(t, l.allowAt("10.0.0.1", now))
		assert.False(t, l.allowAt("10.0.0.1", now))
		assert.True(t, l.allowAt("10.0.0.1", now.Add(2*time.Second)))
	})

	t.Run("empty key is never limited", func(t *testing.T) {
		l := NewKeyLimiter(1.0, 1, time.Minute)

		for i := 0; i < 10; i++ {
			assert.True(t, l.allowAt("", now))
		}
	})

	t.Run("nil limiter allows everything", func(t *testing.T) {
		var l *KeyLimiter

		for i := 0; i < 10; i++ {
			assert.True(t, l.allowAt("10.0.0.1", now))
		}
	})

	t.Run("idle buckets are evicted on sweep", func(t *testing.T) {
		l := NewKeyLimiter(1.0, 1, time.Minute)

		assert.True(t, l.allowAt("10.0.0.1", now))

		// Touching another key past the TTL sweeps the idle one out.
		l.allowAt("10.0.0.2", now.Add(5*time.Minute))

		l.mu.Lock()
		_, idleSurvived := l.buckets["10.0.0.1"]
		_, freshPresent := l.buckets["10.0.0.2"]
		l.mu.Unlock()

		assert.False(t, idleSurvived)
		assert.True(t, freshPresent)
	})
}

func TestNewKeyLimiter_Validation(t *testing.T) {
	assert.Nil(t, NewKeyLimiter(0, 5, time.Minute))
	assert.Nil(t, NewKeyLimiter(1.0, 0, time.Minute))
	assert.NotNil(t, NewKeyLimiter(1.0, 5, 0))
}
