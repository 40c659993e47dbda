package stress

import (
	"fmt"
	"time"

	"github.com/chn0318/dashlog/vector"
)

const (
	RoleReader = "reader"
	RoleWriter = "writer"
	RolePusher = "pusher"
)

// IntVector is the target of the vector roles. Every element is either zero
// or, until an erase shifts it, equal to its index.
type IntVector = *vector.Vector[int]

// VectorRoles returns the reader, writer and pusher roles working on the
// first loop indices.
func VectorRoles(loop int) []Role[IntVector] {
	return []Role[IntVector]{
		{Name: RoleReader, Run: func(v IntVector) error {
			for i := 0; i < loop; i++ {
				if i < v.Len() {
					if val := v.Get(i); val != i && val != 0 {
						return fmt.Errorf("index %d holds %d", i, val)
					}
				}
			}
			return nil
		}},
		{Name: RoleWriter, Run: func(v IntVector) error {
			for i := 0; i < loop; i++ {
				if i < v.Len() {
					v.Set(i, i)
				}
			}
			return nil
		}},
		{Name: RolePusher, Run: func(v IntVector) error {
			for v.Len() < loop {
				v.PushBack(0)
			}
			return nil
		}},
	}
}

// NewVectorHarness starts perRole workers for each vector role.
func NewVectorHarness(perRole, loop int) *Harness[IntVector] {
	return New(perRole, VectorRoles(loop)...)
}

// Copy copies v and assigns the copy back.
func Copy(v IntVector) error {
	c := v.Clone()
	v.Assign(c)
	if c.Len() < v.Len() {
		return fmt.Errorf("copy holds %d elements, source %d", c.Len(), v.Len())
	}
	return nil
}

// Erase erases the middle element.
func Erase(v IntVector) error {
	pos := v.Len() / 2
	_, end, err := v.EraseAt(pos)
	if err != nil {
		return fmt.Errorf("erase at %d: %w", pos, err)
	}
	if end {
		return fmt.Errorf("erase at %d reached the end", pos)
	}
	return nil
}

// Flush pops until the vector is empty.
func Flush(v IntVector) error {
	for {
		val, ok := v.PopBack()
		if !ok {
			return nil
		}
		if val != 0 && val < v.Len() {
			return fmt.Errorf("popped %d with %d elements left", val, v.Len())
		}
	}
}

// CheckIdentity verifies every element is zero or its own index.
func CheckIdentity(v IntVector) error {
	for i, val := range v.All() {
		if val != 0 && val != i {
			return fmt.Errorf("index %d holds %d", i, val)
		}
	}
	return nil
}

// CheckShifted verifies the state after erasures of at most shift elements:
// non-zero values lie in [i, i+shift] and increase strictly.
func CheckShifted(v IntVector, shift int) error {
	prev := -1
	for i, val := range v.All() {
		if val == 0 {
			continue
		}
		if val < i || val > i+shift {
			return fmt.Errorf("index %d holds %d after %d erasures", i, val, shift)
		}
		if val <= prev {
			return fmt.Errorf("index %d holds %d, not above %d", i, val, prev)
		}
		prev = val
	}
	return nil
}

// Timings records one (readers, writers) round.
type Timings struct {
	Readers  int
	Writers  int
	Elements int
	Phase    time.Duration
	Copy     time.Duration
	Erase    time.Duration
	Flush    time.Duration
}

// RunVectorRound runs concurrent reads, writes and pushes on a fresh vector,
// then concurrent copies, erases and pops, checking the invariants after
// each step. writers sets the number of writers, pushers, copiers, erasers
// and flushers.
func RunVectorRound(h *Harness[IntVector], readers, writers, loop int) (Timings, error) {
	tm := Timings{Readers: readers, Writers: writers}
	v := vector.New[int]()

	start := time.Now()
	if err := h.Round(v, Mix{RoleReader: readers, RoleWriter: writers, RolePusher: writers}); err != nil {
		return tm, err
	}
	tm.Phase = time.Since(start)
	if writers > 0 && v.Len() < loop {
		return tm, fmt.Errorf("pushers stopped at %d of %d", v.Len(), loop)
	}

	start = time.Now()
	if err := Parallel(writers, func(int) error { return Copy(v) }); err != nil {
		return tm, err
	}
	tm.Copy = time.Since(start)
	if err := CheckIdentity(v); err != nil {
		return tm, fmt.Errorf("after copy: %w", err)
	}

	start = time.Now()
	if err := Parallel(writers, func(int) error { return Erase(v) }); err != nil {
		return tm, err
	}
	tm.Erase = time.Since(start)
	if err := CheckShifted(v, writers); err != nil {
		return tm, fmt.Errorf("after erase: %w", err)
	}

	tm.Elements = v.Len()
	start = time.Now()
	if err := Parallel(writers, func(int) error { return Flush(v) }); err != nil {
		return tm, err
	}
	tm.Flush = time.Since(start)
	if !v.Empty() {
		return tm, fmt.Errorf("%d elements left after flush", v.Len())
	}
	return tm, nil
}

// RunSerial exercises v from a single goroutine: push, write, read, copy,
// erase and pop.
func RunSerial(v IntVector, n int) (Timings, error) {
	tm := Timings{Elements: n}

	start := time.Now()
	for v.Len() < n {
		v.PushBack(0)
	}
	for i := 0; i < n; i++ {
		v.Set(i, i)
	}
	if err := CheckIdentity(v); err != nil {
		return tm, err
	}
	tm.Phase = time.Since(start)

	start = time.Now()
	for k := 0; k < 10; k++ {
		if err := Copy(v); err != nil {
			return tm, err
		}
	}
	tm.Copy = time.Since(start)

	start = time.Now()
	if n > 1 {
		if err := Erase(v); err != nil {
			return tm, err
		}
	}
	tm.Erase = time.Since(start)
	if err := CheckShifted(v, 1); err != nil {
		return tm, err
	}

	start = time.Now()
	if err := Flush(v); err != nil {
		return tm, err
	}
	tm.Flush = time.Since(start)

	v.PushBack(42)
	if next, end, err := v.EraseAt(0); err != nil || next != 0 || !end {
		return tm, fmt.Errorf("erase of single element: next=%d end=%v err=%v", next, end, err)
	}
	return tm, nil
}
