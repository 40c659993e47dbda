package graph

import (
	"slices"
	"sync"
)

// Node is a graph vertex. It holds the ids of its children and attributes;
// the objects themselves are owned by the node's context.
type Node struct {
	id  ID
	ctx *Context

	mu         sync.RWMutex
	children   []ID
	attributes []ID
}

func (n *Node) ID() ID { return n.id }

// Context returns the context the node was materialized in.
func (n *Node) Context() *Context { return n.ctx }

// IsMapped reports whether the node is still registered in its context.
func (n *Node) IsMapped() bool {
	return n.ctx != nil && n.ctx.Node(n.id) == n
}

// Insert links child under n. Inserting the same child twice links it twice.
func (n *Node) Insert(child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = append(n.children, child.id)
}

// Erase unlinks the first occurrence of child. It reports whether the child
// was linked.
func (n *Node) Erase(child *Node) bool { return n.EraseChild(child.id) }

// EraseChild unlinks the first occurrence of the child id, whether or not the
// child is still mapped.
func (n *Node) EraseChild(id ID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := slices.Index(n.children, id)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	return true
}

func (n *Node) InsertAttribute(a *Attribute) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attributes = append(n.attributes, a.id)
}

func (n *Node) EraseAttribute(a *Attribute) bool { return n.EraseAttributeID(a.id) }

func (n *Node) EraseAttributeID(id ID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := slices.Index(n.attributes, id)
	if i < 0 {
		return false
	}
	n.attributes = slices.Delete(n.attributes, i, i+1)
	return true
}

// ChildIDs returns the linked child ids in insertion order.
func (n *Node) ChildIDs() []ID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.children)
}

// Children resolves the linked children through the node's context. Ids no
// longer mapped there are skipped.
func (n *Node) Children() []*Node {
	ids := n.ChildIDs()
	children := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if c := n.ctx.Node(id); c != nil {
			children = append(children, c)
		}
	}
	return children
}

// ChildCount returns how many times id is linked as a child.
func (n *Node) ChildCount(id ID) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	count := 0
	for _, c := range n.children {
		if c == id {
			count++
		}
	}
	return count
}

func (n *Node) HasChild(id ID) bool { return n.ChildCount(id) > 0 }

func (n *Node) AttributeIDs() []ID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.attributes)
}

func (n *Node) Attributes() []*Attribute {
	ids := n.AttributeIDs()
	attrs := make([]*Attribute, 0, len(ids))
	for _, id := range ids {
		if a := n.ctx.Attribute(id); a != nil {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func (n *Node) HasAttribute(id ID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Contains(n.attributes, id)
}

func (n *Node) state() NodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return NodeState{
		Children:   slices.Clone(n.children),
		Attributes: slices.Clone(n.attributes),
	}
}
