package throttle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestThrottle() (*LoginThrottle, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now)), clock
}

func TestLoginThrottle_LocksAtThreshold(t *testing.T) {
	th, clock := newTestThrottle()
	const ip = "10.0.0.1"

	for i := 1; i < DefaultThreshold; i++ {
		locked, _ := th.RecordFailure(ip)
		assert.False(t, locked, "failure %d must not lock", i)
		assert.Equal(t, StateAccumulating, th.State(ip))
	}

	locked, until := th.RecordFailure(ip)
	assert.True(t, locked)
	assert.Equal(t, clock.Now().Add(DefaultLockDuration), until)
	assert.Equal(t, StateLocked, th.State(ip))

	isLocked, _ := th.IsLocked(ip)
	assert.True(t, isLocked)
}

func TestLoginThrottle_LazyExpiry(t *testing.T) {
	th, clock := newTestThrottle()
	const ip = "10.0.0.2"
	for i := 0; i < DefaultThreshold; i++ {
		th.RecordFailure(ip)
	}

	clock.Advance(DefaultLockDuration - time.Second)
	locked, _ := th.IsLocked(ip)
	assert.True(t, locked)

	clock.Advance(time.Second)
	locked, _ = th.IsLocked(ip)
	assert.False(t, locked, "lock ends exactly at lockedUntil")
	assert.Equal(t, 0, th.Failures(ip), "expired record is removed")
	assert.Equal(t, StateClear, th.State(ip))
}

func TestLoginThrottle_FailureWhileLockedKeepsDeadline(t *testing.T) {
	th, clock := newTestThrottle()
	const ip = "10.0.0.3"
	var until time.Time
	for i := 0; i < DefaultThreshold; i++ {
		_, until = th.RecordFailure(ip)
	}

	clock.Advance(time.Minute)
	locked, again := th.RecordFailure(ip)
	assert.True(t, locked)
	assert.Equal(t, until, again)
}

func TestLoginThrottle_FailureAfterExpiryStartsOver(t *testing.T) {
	th, clock := newTestThrottle()
	const ip = "10.0.0.4"
	for i := 0; i < DefaultThreshold; i++ {
		th.RecordFailure(ip)
	}
	clock.Advance(DefaultLockDuration)

	locked, _ := th.RecordFailure(ip)
	assert.False(t, locked)
	assert.Equal(t, 1, th.Failures(ip))
}

func TestLoginThrottle_SuccessClears(t *testing.T) {
	th, _ := newTestThrottle()
	const ip = "10.0.0.5"
	th.RecordFailure(ip)
	th.RecordFailure(ip)

	th.RecordSuccess(ip)
	assert.Equal(t, StateClear, th.State(ip))
	assert.Equal(t, 0, th.Failures(ip))
}

func TestLoginThrottle_ClientsAreIndependent(t *testing.T) {
	th, _ := newTestThrottle()
	for i := 0; i < DefaultThreshold; i++ {
		th.RecordFailure("a")
	}

	locked, _ := th.IsLocked("b")
	assert.False(t, locked)
	assert.Equal(t, StateLocked, th.State("a"))
}

func TestLoginThrottle_Options(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	th := New(WithThreshold(2), WithLockDuration(time.Minute), WithClock(clock.Now))

	th.RecordFailure("x")
	locked, until := th.RecordFailure("x")
	assert.True(t, locked)
	assert.Equal(t, time.Unix(60, 0), until)
}

func TestLoginThrottle_Prune(t *testing.T) {
	th, clock := newTestThrottle()
	for i := 0; i < DefaultThreshold; i++ {
		th.RecordFailure("locked")
	}
	th.RecordFailure("counting")

	assert.Equal(t, 0, th.Prune())
	clock.Advance(DefaultLockDuration)
	assert.Equal(t, 1, th.Prune())
	assert.Equal(t, StateAccumulating, th.State("counting"))
}

func TestLoginThrottle_ConcurrentFailures(t *testing.T) {
	th, _ := newTestThrottle()
	var wg sync.WaitGroup
	var mu sync.Mutex
	lockTransitions := 0
	for i := 0; i < DefaultThreshold; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if locked, _ := th.RecordFailure("ip"); locked {
				mu.Lock()
				lockTransitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, lockTransitions)
	assert.Equal(t, DefaultThreshold, th.Failures("ip"))
}
