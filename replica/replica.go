// Package replica keeps a participant's graph up to date with a stream of
// published commits.
package replica

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/graph"
)

var (
	appliedCommits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashlog",
		Subsystem: "replica",
		Name:      "applied_commits_total",
		Help:      "Commits applied to a local graph.",
	})

	failedApplies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashlog",
		Subsystem: "replica",
		Name:      "failed_applies_total",
		Help:      "Commits whose apply returned an error.",
	})
)

// Source hands out published commits by position.
type Source interface {
	Commits(ctx context.Context, from, limit int) ([]*commit.Commit, error)
}

// Replica applies every published commit exactly once to its context.
type Replica struct {
	graph *graph.Context
	batch int

	mu     sync.Mutex
	next   int
	failed error
}

func New(g *graph.Context, batch int) *Replica {
	return NewAt(g, batch, 0)
}

// NewAt returns a replica that starts syncing at position next.
func NewAt(g *graph.Context, batch, next int) *Replica {
	return &Replica{graph: g, batch: batch, next: next}
}

func (r *Replica) Graph() *graph.Context { return r.graph }

// Next returns the position of the first commit not applied yet.
func (r *Replica) Next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Err returns the apply error that stopped the replica, if any.
func (r *Replica) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Sync fetches and applies commits until src has none left and returns how
// many it applied. Concurrent calls are serialized, so a commit is never
// applied twice. A commit that fails to apply may have been applied in part,
// so the replica stops at it for good: every later Sync returns the same
// error without touching the graph.
func (r *Replica) Sync(ctx context.Context, src Source) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failed != nil {
		return 0, r.failed
	}
	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		commits, err := src.Commits(ctx, r.next, r.batch)
		if err != nil {
			return applied, fmt.Errorf("fetch from %d: %w", r.next, err)
		}
		if len(commits) == 0 {
			return applied, nil
		}
		for _, c := range commits {
			if err := c.Apply(r.graph); err != nil {
				failedApplies.Inc()
				glog.Errorf("[replica %s] commit %s at %d: %v\n", r.graph.Name(), c.ID(), r.next, err)
				r.failed = fmt.Errorf("commit %s at %d: %w", c.ID(), r.next, err)
				return applied, r.failed
			}
			r.next++
			applied++
			appliedCommits.Inc()
		}
	}
}
