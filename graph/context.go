package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"
)

// ID is the distributed identity of a graph object. The same ID names the
// object in every context it is mapped into.
type ID = uuid.UUID

// NewID returns a fresh random ID.
func NewID() ID { return uuid.New() }

// ErrNotMapped is returned when an object is not materialized in a context.
var ErrNotMapped = errors.New("object not mapped")

// Origin materializes objects owned by another participant into a target
// context. After a successful Map call the object is mapped in target.
type Origin interface {
	MapNode(id ID, target *Context) (*Node, error)
	MapAttribute(id ID, target *Context) (*Attribute, error)

	// Export copies the state of the object named by id, and everything
	// reachable from it, into snap.
	Export(id ID, snap *Snapshot) error
}

// Context is one participant's registry of materialized objects. It is the
// only owner of the nodes and attributes mapped into it; objects keep just a
// back-reference to the context.
type Context struct {
	name string

	mu    sync.RWMutex
	nodes map[ID]*Node
	attrs map[ID]*Attribute
}

// NewContext creates an empty registry.
func NewContext(name string) *Context {
	return &Context{
		name:  name,
		nodes: make(map[ID]*Node),
		attrs: make(map[ID]*Attribute),
	}
}

func (c *Context) Name() string { return c.name }

func (c *Context) String() string { return "context(" + c.name + ")" }

// NewNode creates a node with a fresh ID and maps it into c.
func (c *Context) NewNode() *Node {
	n, _ := c.adoptNode(NewID())
	return n
}

// NewAttribute creates an attribute with a fresh ID and maps it into c.
func (c *Context) NewAttribute(value []byte) *Attribute {
	a, _ := c.adoptAttribute(NewID())
	a.Set(value)
	return a
}

// IsMapped reports whether the object named by id is materialized in c.
func (c *Context) IsMapped(id ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.nodes[id]; ok {
		return true
	}
	_, ok := c.attrs[id]
	return ok
}

// Node returns the local node for id, or nil if it is not mapped.
func (c *Context) Node(id ID) *Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodes[id]
}

// Attribute returns the local attribute for id, or nil if it is not mapped.
func (c *Context) Attribute(id ID) *Attribute {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attrs[id]
}

// Unmap drops the object from the registry. The object itself is left
// untouched, but IsMapped reports false for it afterwards.
func (c *Context) Unmap(id ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nodes[id]; ok {
		delete(c.nodes, id)
		return true
	}
	if _, ok := c.attrs[id]; ok {
		delete(c.attrs, id)
		return true
	}
	return false
}

// Len returns the number of mapped objects.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes) + len(c.attrs)
}

// MapNode materializes the node named by id, with its attributes and
// children, into target. A node already mapped in target is returned as is.
func (c *Context) MapNode(id ID, target *Context) (*Node, error) {
	if n := target.Node(id); n != nil {
		return n, nil
	}
	var snap Snapshot
	if err := c.Export(id, &snap); err != nil {
		return nil, err
	}
	return snap.MapNode(id, target)
}

// MapAttribute materializes the attribute named by id into target.
func (c *Context) MapAttribute(id ID, target *Context) (*Attribute, error) {
	if a := target.Attribute(id); a != nil {
		return a, nil
	}
	var snap Snapshot
	if err := c.Export(id, &snap); err != nil {
		return nil, err
	}
	return snap.MapAttribute(id, target)
}

func (c *Context) Export(id ID, snap *Snapshot) error {
	if a := c.Attribute(id); a != nil {
		snap.putAttribute(id, a.state())
		return nil
	}
	n := c.Node(id)
	if n == nil {
		return fmt.Errorf("export %s from %s: %w", id, c, ErrNotMapped)
	}
	if snap.hasNode(id) {
		return nil
	}
	st := n.state()
	snap.putNode(id, st)
	// Dangling references below the root are left out of the snapshot.
	for _, aid := range st.Attributes {
		if err := c.Export(aid, snap); err != nil && glog.V(2) {
			glog.Infof("[graph] node %s: skipping attribute: %v\n", id, err)
		}
	}
	for _, cid := range st.Children {
		if err := c.Export(cid, snap); err != nil && glog.V(2) {
			glog.Infof("[graph] node %s: skipping child: %v\n", id, err)
		}
	}
	return nil
}

// adoptNode maps a node with the given id, returning the existing one if
// another goroutine got there first.
func (c *Context) adoptNode(id ID) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.nodes[id]; ok {
		return n, false
	}
	n := &Node{id: id, ctx: c}
	c.nodes[id] = n
	return n, true
}

func (c *Context) adoptAttribute(id ID) (*Attribute, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.attrs[id]; ok {
		return a, false
	}
	a := &Attribute{id: id, ctx: c}
	c.attrs[id] = a
	return a, true
}
