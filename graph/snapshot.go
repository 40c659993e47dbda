package graph

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/golang/glog"
)

type NodeState struct {
	Children   []ID
	Attributes []ID
}

type AttributeState struct {
	Value []byte
}

// Snapshot holds detached object state, keyed by ID. It is the Origin of
// objects that reached a participant through a transport rather than from a
// context in the same process.
type Snapshot struct {
	Nodes      map[ID]NodeState
	Attributes map[ID]AttributeState
}

func (s *Snapshot) Len() int { return len(s.Nodes) + len(s.Attributes) }

func (s *Snapshot) hasNode(id ID) bool {
	_, ok := s.Nodes[id]
	return ok
}

func (s *Snapshot) putNode(id ID, st NodeState) {
	if s.Nodes == nil {
		s.Nodes = make(map[ID]NodeState)
	}
	s.Nodes[id] = st
}

func (s *Snapshot) putAttribute(id ID, st AttributeState) {
	if s.Attributes == nil {
		s.Attributes = make(map[ID]AttributeState)
	}
	s.Attributes[id] = st
}

func (s *Snapshot) Export(id ID, into *Snapshot) error {
	if st, ok := s.Attributes[id]; ok {
		into.putAttribute(id, AttributeState{Value: bytes.Clone(st.Value)})
		return nil
	}
	st, ok := s.Nodes[id]
	if !ok {
		return fmt.Errorf("export %s from snapshot: %w", id, ErrNotMapped)
	}
	if into.hasNode(id) {
		return nil
	}
	into.putNode(id, NodeState{
		Children:   slices.Clone(st.Children),
		Attributes: slices.Clone(st.Attributes),
	})
	for _, aid := range st.Attributes {
		if err := s.Export(aid, into); err != nil && glog.V(2) {
			glog.Infof("[graph] node %s: skipping attribute: %v\n", id, err)
		}
	}
	for _, cid := range st.Children {
		if err := s.Export(cid, into); err != nil && glog.V(2) {
			glog.Infof("[graph] node %s: skipping child: %v\n", id, err)
		}
	}
	return nil
}

// MapNode materializes the node and its reachable subtree into target.
// Objects already mapped in target are reused, not overwritten.
func (s *Snapshot) MapNode(id ID, target *Context) (*Node, error) {
	if n := target.Node(id); n != nil {
		return n, nil
	}
	st, ok := s.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("map node %s into %s: %w", id, target, ErrNotMapped)
	}
	n, created := target.adoptNode(id)
	if !created {
		return n, nil
	}
	for _, aid := range st.Attributes {
		a, err := s.MapAttribute(aid, target)
		if err != nil {
			if glog.V(2) {
				glog.Infof("[graph] node %s: not linking attribute: %v\n", id, err)
			}
			continue
		}
		n.InsertAttribute(a)
	}
	for _, cid := range st.Children {
		c, err := s.MapNode(cid, target)
		if err != nil {
			if glog.V(2) {
				glog.Infof("[graph] node %s: not linking child: %v\n", id, err)
			}
			continue
		}
		n.Insert(c)
	}
	return n, nil
}

func (s *Snapshot) MapAttribute(id ID, target *Context) (*Attribute, error) {
	if a := target.Attribute(id); a != nil {
		return a, nil
	}
	st, ok := s.Attributes[id]
	if !ok {
		return nil, fmt.Errorf("map attribute %s into %s: %w", id, target, ErrNotMapped)
	}
	a, created := target.adoptAttribute(id)
	if created {
		a.Set(st.Value)
	}
	return a, nil
}
