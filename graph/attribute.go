package graph

import (
	"bytes"
	"sync"
)

// Attribute is a property attached to nodes. Its value is opaque to this
// package.
type Attribute struct {
	id  ID
	ctx *Context

	mu      sync.RWMutex
	value   []byte
	applied uint64
}

func (a *Attribute) ID() ID { return a.id }

func (a *Attribute) Context() *Context { return a.ctx }

func (a *Attribute) IsMapped() bool {
	return a.ctx != nil && a.ctx.Attribute(a.id) == a
}

// Value returns a copy of the current value.
func (a *Attribute) Value() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return bytes.Clone(a.value)
}

// Set changes the value locally.
func (a *Attribute) Set(value []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.value = bytes.Clone(value)
}

// Applied returns how many values were applied through ApplyValue.
func (a *Attribute) Applied() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.applied
}

// ApplyValue is the replay hook for a remote value change. Applying the same
// value again leaves the value unchanged but still counts as an application.
func ApplyValue(a *Attribute, value []byte) {
	a.applyValue(value)
}

func (a *Attribute) applyValue(value []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.value = bytes.Clone(value)
	a.applied++
}

func (a *Attribute) state() AttributeState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AttributeState{Value: bytes.Clone(a.value)}
}
