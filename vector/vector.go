// Package vector implements a growable sequence that many goroutines can
// read, write, append to and shrink concurrently.
//
// Storage is split into fixed-size segments. Growing adds a segment and never
// moves published elements, so readers and writers of existing indices are
// not disturbed by appends. Indexed access locks only the segment holding the
// index. Operations that change the shape of the sequence (PopBack, EraseAt,
// Assign) exclude every other operation for their duration.
package vector

import (
	"errors"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
)

const (
	segmentShift = 10
	SegmentSize  = 1 << segmentShift
	segmentMask  = SegmentSize - 1
)

var ErrIndexOutOfRange = errors.New("vector: index out of range")

type segment[T any] struct {
	mu    sync.RWMutex
	slots [SegmentSize]T
}

// Vector is a concurrent sequence of T. The zero value is an empty vector
// ready to use. A Vector must not be copied after first use; use Clone or
// Assign.
type Vector[T any] struct {
	// shape is held shared by indexed access, appends and clones, and
	// exclusively by operations that shrink or replace the storage.
	shape sync.RWMutex
	// tail serializes appenders.
	tail sync.Mutex

	dir  atomic.Pointer[[]*segment[T]]
	size atomic.Int64
}

func New[T any]() *Vector[T] {
	return &Vector[T]{}
}

// From returns a vector holding values.
func From[T any](values ...T) *Vector[T] {
	v := New[T]()
	for _, val := range values {
		v.PushBack(val)
	}
	return v
}

// Len returns the number of published elements.
func (v *Vector[T]) Len() int { return int(v.size.Load()) }

func (v *Vector[T]) Empty() bool { return v.Len() == 0 }

// Get returns the element at i. An index that is not published, including
// one an append has reserved but not finished, reads as the zero value.
func (v *Vector[T]) Get(i int) T {
	v.shape.RLock()
	defer v.shape.RUnlock()

	var zero T
	if i < 0 || i >= v.Len() {
		return zero
	}
	seg := v.segment(i)
	seg.mu.RLock()
	val := seg.slots[i&segmentMask]
	seg.mu.RUnlock()
	return val
}

// Set stores val at i. It reports false, storing nothing, when i is not a
// published index.
func (v *Vector[T]) Set(i int, val T) bool {
	v.shape.RLock()
	defer v.shape.RUnlock()

	if i < 0 || i >= v.Len() {
		return false
	}
	seg := v.segment(i)
	seg.mu.Lock()
	seg.slots[i&segmentMask] = val
	seg.mu.Unlock()
	return true
}

// PushBack appends val and returns its index. The element becomes visible
// to readers only once it is fully written.
func (v *Vector[T]) PushBack(val T) int {
	v.shape.RLock()
	defer v.shape.RUnlock()
	v.tail.Lock()
	defer v.tail.Unlock()

	i := v.Len()
	seg := v.grow(i)
	seg.mu.Lock()
	seg.slots[i&segmentMask] = val
	seg.mu.Unlock()
	v.size.Store(int64(i + 1))
	return i
}

// PopBack removes and returns the last element. It reports false when the
// vector is empty.
func (v *Vector[T]) PopBack() (T, bool) {
	v.shape.Lock()
	defer v.shape.Unlock()

	var zero T
	n := v.Len()
	if n == 0 {
		return zero, false
	}
	seg := v.segment(n - 1)
	val := seg.slots[(n-1)&segmentMask]
	seg.slots[(n-1)&segmentMask] = zero
	v.size.Store(int64(n - 1))
	return val, true
}

// EraseAt removes the element at p and shifts the elements after it down by
// one. It returns the position of the element that now follows the erased
// one, and whether that position is the end of the vector. Erasing from an
// empty vector or past the end returns ErrIndexOutOfRange.
func (v *Vector[T]) EraseAt(p int) (int, bool, error) {
	v.shape.Lock()
	defer v.shape.Unlock()

	n := v.Len()
	if p < 0 || p >= n {
		return n, true, ErrIndexOutOfRange
	}
	dir := *v.dir.Load()
	for i := p; i < n-1; i++ {
		dir[i>>segmentShift].slots[i&segmentMask] = dir[(i+1)>>segmentShift].slots[(i+1)&segmentMask]
	}
	var zero T
	dir[(n-1)>>segmentShift].slots[(n-1)&segmentMask] = zero
	v.size.Store(int64(n - 1))
	return p, p == n-1, nil
}

// Clone returns a copy of v. Appends may run while the copy is taken; the
// copy holds at least the elements published when Clone was called.
func (v *Vector[T]) Clone() *Vector[T] {
	segs, n := v.snapshot()
	out := New[T]()
	out.dir.Store(&segs)
	out.size.Store(int64(n))
	return out
}

// Assign replaces the contents of v with a copy of src.
func (v *Vector[T]) Assign(src *Vector[T]) {
	if v == src {
		return
	}
	// The source is copied before v is locked, so two vectors assigning
	// each other cannot deadlock.
	segs, n := src.snapshot()

	v.shape.Lock()
	defer v.shape.Unlock()
	v.dir.Store(&segs)
	v.size.Store(int64(n))
}

// Values returns a copy of the elements.
func (v *Vector[T]) Values() []T {
	segs, n := v.snapshot()
	values := make([]T, 0, n)
	for s, seg := range segs {
		hi := min(n-s<<segmentShift, SegmentSize)
		values = append(values, seg.slots[:hi]...)
	}
	return values
}

// All yields index and value pairs of a snapshot of v.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return slices.All(v.Values())
}

func (v *Vector[T]) segment(i int) *segment[T] {
	return (*v.dir.Load())[i>>segmentShift]
}

// grow returns the segment for index i, adding one if i is past the
// current capacity. Callers hold tail.
func (v *Vector[T]) grow(i int) *segment[T] {
	var dir []*segment[T]
	if p := v.dir.Load(); p != nil {
		dir = *p
	}
	s := i >> segmentShift
	if s < len(dir) {
		return dir[s]
	}
	next := make([]*segment[T], len(dir), s+1)
	copy(next, dir)
	for len(next) <= s {
		next = append(next, new(segment[T]))
	}
	v.dir.Store(&next)
	return next[s]
}

// snapshot copies the published elements into fresh segments.
func (v *Vector[T]) snapshot() ([]*segment[T], int) {
	v.shape.RLock()
	defer v.shape.RUnlock()

	n := v.Len()
	if n == 0 {
		return nil, 0
	}
	src := *v.dir.Load()
	segs := make([]*segment[T], (n+segmentMask)>>segmentShift)
	for s := range segs {
		hi := min(n-s<<segmentShift, SegmentSize)
		seg := new(segment[T])
		src[s].mu.RLock()
		copy(seg.slots[:hi], src[s].slots[:hi])
		src[s].mu.RUnlock()
		segs[s] = seg
	}
	return segs, n
}
