// Package monitor provides a counter goroutines can block on until it
// reaches a value. Workers use it to line up in phases.
package monitor

import (
	"math"
	"sync"
)

// Stop is the sentinel value that tells waiting workers to exit.
const Stop = math.MaxUint64

type Counter struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value uint64
}

func New(value uint64) *Counter {
	c := &Counter{value: value}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Counter) Load() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores value and wakes every waiter.
func (c *Counter) Set(value uint64) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Add adds delta and returns the new value. A stopped counter stays stopped.
func (c *Counter) Add(delta uint64) uint64 {
	c.mu.Lock()
	if c.value != Stop {
		c.value += delta
	}
	v := c.value
	c.mu.Unlock()
	c.cond.Broadcast()
	return v
}

func (c *Counter) Inc() uint64 { return c.Add(1) }

// WaitGE blocks until the counter is at least value and returns it.
func (c *Counter) WaitGE(value uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.value < value {
		c.cond.Wait()
	}
	return c.value
}

// WaitEQ blocks until the counter equals value. It also returns when the
// counter is stopped, reporting false.
func (c *Counter) WaitEQ(value uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.value != value && c.value != Stop {
		c.cond.Wait()
	}
	return c.value == value
}

// Stop releases every waiter with the Stop sentinel.
func (c *Counter) Stop() { c.Set(Stop) }

func (c *Counter) Stopped() bool { return c.Load() == Stop }
