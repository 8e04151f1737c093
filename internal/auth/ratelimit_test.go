package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUntilLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("1.2.3.4", "reader")
		assert.True(t, allowed)
		rl.RecordFailure("1.2.3.4", "reader")
	}

	allowed, retryAfter := rl.Allow("1.2.3.4", "reader")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, time.Minute)

	rl.RecordFailure("1.2.3.4", "reader")
	allowed, _ := rl.Allow("1.2.3.4", "reader")
	assert.False(t, allowed)

	// Different IP and different username each get their own budget
	allowed, _ = rl.Allow("5.6.7.8", "reader")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("1.2.3.4", "other")
	assert.True(t, allowed)
}

func TestRateLimiter_SuccessResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, time.Minute)

	rl.RecordFailure("1.2.3.4", "reader")
	allowed, _ := rl.Allow("1.2.3.4", "reader")
	assert.False(t, allowed)

	rl.RecordSuccess("1.2.3.4", "reader")
	allowed, _ = rl.Allow("1.2.3.4", "reader")
	assert.True(t, allowed)
}
