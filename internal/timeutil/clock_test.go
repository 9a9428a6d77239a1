package timeutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	var c RealClock
	start := c.Now()
	assert.GreaterOrEqual(t, c.Since(start), time.Duration(0))
}

func TestMockClock(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewMockClock(base)
	assert.Equal(t, base, c.Now())

	c.Advance(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, c.Since(base))

	c.Set(base.Add(time.Hour))
	assert.Equal(t, time.Hour, c.Since(base))
}

func TestMockClock_ConcurrentAdvance(t *testing.T) {
	base := time.Unix(0, 0)
	c := NewMockClock(base)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Millisecond)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50*time.Millisecond, c.Since(base))
}

func TestStopwatch(t *testing.T) {
	c := NewMockClock(time.Unix(100, 0))
	sw := StartStopwatch(c)
	c.Advance(1500 * time.Microsecond)
	assert.Equal(t, 1500*time.Microsecond, sw.Elapsed())
	assert.InDelta(t, 1.5, sw.Millis(), 1e-9)
}
