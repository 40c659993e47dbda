// Package stress runs mixes of concurrent workers against one shared target
// and collects the invariant violations they report.
package stress

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chn0318/dashlog/monitor"
)

// Role is a kind of worker. Run performs one round of work on the target and
// returns an error describing any invariant it saw broken.
type Role[S any] struct {
	Name string
	Run  func(target S) error
}

// Mix says how many workers of each role take part in a round. Roles not
// named sit the round out.
type Mix map[string]int

type worker[S any] struct {
	role   Role[S]
	index  int
	target S
	active bool
}

// Harness keeps a fixed pool of workers parked on a stage counter. Each
// Round releases all of them at once and waits until every worker has
// checked back in.
type Harness[S any] struct {
	stage     *monitor.Counter
	stageSize uint64
	workers   []*worker[S]
	group     errgroup.Group
	round     uint64

	mu   sync.Mutex
	errs []error
}

// New starts perRole workers for every role.
func New[S any](perRole int, roles ...Role[S]) *Harness[S] {
	h := &Harness[S]{stage: monitor.New(1)}
	for _, role := range roles {
		for i := 0; i < perRole; i++ {
			h.workers = append(h.workers, &worker[S]{role: role, index: i})
		}
	}
	// Every worker bumps the stage once per round; a round's stage must
	// stay below the next round's start.
	h.stageSize = uint64(len(h.workers)) + 1
	for _, w := range h.workers {
		h.group.Go(func() error {
			h.run(w)
			return nil
		})
	}
	return h
}

func (h *Harness[S]) Workers() int { return len(h.workers) }

func (h *Harness[S]) run(w *worker[S]) {
	var stage uint64
	for {
		stage += h.stageSize
		if h.stage.WaitGE(stage) == monitor.Stop {
			return
		}
		if w.active {
			if err := w.role.Run(w.target); err != nil {
				h.fail(fmt.Errorf("%s[%d]: %w", w.role.Name, w.index, err))
			}
		}
		h.stage.Inc()
	}
}

func (h *Harness[S]) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

// Round runs one phase against target with the given mix and returns the
// violations reported during it.
func (h *Harness[S]) Round(target S, mix Mix) error {
	if h.stage.Stopped() {
		return errors.New("stress: harness closed")
	}
	h.round++
	for _, w := range h.workers {
		w.target = target
		w.active = w.index < mix[w.role.Name]
	}
	next := h.round * h.stageSize
	h.stage.Set(next)
	h.stage.WaitEQ(next + uint64(len(h.workers)))

	h.mu.Lock()
	defer h.mu.Unlock()
	err := errors.Join(h.errs...)
	h.errs = nil
	return err
}

// Close tells the workers to exit and waits for them.
func (h *Harness[S]) Close() error {
	h.stage.Stop()
	return h.group.Wait()
}

// Parallel runs fn on n goroutines and waits for all of them. It returns the
// first error.
func Parallel(n int, fn func(i int) error) error {
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
