// Package commit records graph mutations made by one transaction and replays
// them on another participant.
package commit

import (
	"fmt"
	"iter"
	"slices"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/chn0318/dashlog/graph"
)

// Commit is an ordered, append-only batch of changes. It is owned by its
// producer until handed off, and by the single applying participant after.
// Neither Add nor Apply may be called concurrently.
type Commit struct {
	id      ulid.ULID
	changes []Change
}

// New starts an empty commit with a fresh id.
func New() *Commit {
	return &Commit{id: ulid.Make()}
}

// FromChanges rebuilds a commit received from a transport.
func FromChanges(id ulid.ULID, changes []Change) *Commit {
	return &Commit{id: id, changes: slices.Clone(changes)}
}

func (c *Commit) ID() ulid.ULID { return c.id }

// Add appends change to the tail. No validation and no deduplication.
func (c *Commit) Add(change Change) {
	c.changes = append(c.changes, change)
}

func (c *Commit) Len() int { return len(c.changes) }

func (c *Commit) At(i int) Change { return c.changes[i] }

// All yields the changes in append order.
func (c *Commit) All() iter.Seq2[int, Change] {
	return slices.All(c.changes)
}

// Apply replays the changes in append order against target.
//
// Insert and erase changes whose owner is not mapped in target are dropped:
// the owner may simply not have reached this participant yet. Attribute value
// changes are not gated on the owner. A change apply cannot dispatch stops the
// replay with an *UnknownChangeError; changes before it stay applied.
//
// Apply does not modify c. Applying the same commit twice inserts twice.
func (c *Commit) Apply(target *graph.Context) error {
	for i, change := range c.changes {
		if glog.V(2) {
			glog.Infof("[commit %s] %d/%d %v -> %s\n", c.id, i+1, len(c.changes), change, target)
		}
		if err := apply(i, change, target); err != nil {
			return fmt.Errorf("apply commit %s: %w", c.id, err)
		}
	}
	return nil
}

func apply(i int, change Change, target *graph.Context) error {
	switch ch := change.(type) {
	case NodeInsert:
		owner := target.Node(ch.Owner)
		if owner == nil {
			glog.Infof("[commit] ignoring node insert, parent %s not mapped in %s\n", ch.Owner, target)
			return nil
		}
		child, err := mapNode(ch.Origin, ch.Child, target)
		if err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
		owner.Insert(child)

	case NodeErase:
		owner := target.Node(ch.Owner)
		if owner == nil {
			return nil
		}
		owner.EraseChild(ch.Child)

	case AttributeInsert:
		owner := target.Node(ch.Owner)
		if owner == nil {
			glog.Infof("[commit] ignoring attribute insert, parent %s not mapped in %s\n", ch.Owner, target)
			return nil
		}
		attr, err := mapAttribute(ch.Origin, ch.Attribute, target)
		if err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
		owner.InsertAttribute(attr)

	case AttributeErase:
		owner := target.Node(ch.Owner)
		if owner == nil {
			return nil
		}
		owner.EraseAttributeID(ch.Attribute)

	case AttributeChanged:
		// Not gated on the owner being mapped: the value reaches any
		// participant that holds the attribute, linked or not.
		attr := target.Attribute(ch.Attribute)
		if attr == nil {
			return &UnresolvedAttributeError{Index: i, Attribute: ch.Attribute, Context: target.Name()}
		}
		graph.ApplyValue(attr, ch.Value)

	default:
		glog.Errorf("[commit] cannot apply change %d: %v\n", i, change)
		return &UnknownChangeError{Index: i, Change: change}
	}
	return nil
}

func mapNode(origin graph.Origin, id graph.ID, target *graph.Context) (*graph.Node, error) {
	if n := target.Node(id); n != nil {
		return n, nil
	}
	if origin == nil {
		return nil, fmt.Errorf("node %s has no origin: %w", id, graph.ErrNotMapped)
	}
	return origin.MapNode(id, target)
}

func mapAttribute(origin graph.Origin, id graph.ID, target *graph.Context) (*graph.Attribute, error) {
	if a := target.Attribute(id); a != nil {
		return a, nil
	}
	if origin == nil {
		return nil, fmt.Errorf("attribute %s has no origin: %w", id, graph.ErrNotMapped)
	}
	return origin.MapAttribute(id, target)
}
