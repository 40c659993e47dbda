package commit

import (
	"fmt"

	"github.com/chn0318/dashlog/graph"
)

// Kind tags the variant of a Change.
type Kind int

const (
	KindUnknown Kind = iota
	KindNodeInsert
	KindNodeErase
	KindAttributeInsert
	KindAttributeErase
	KindAttributeChanged
)

var kindNames = map[Kind]string{
	KindNodeInsert:       "node-insert",
	KindNodeErase:        "node-erase",
	KindAttributeInsert:  "attribute-insert",
	KindAttributeErase:   "attribute-erase",
	KindAttributeChanged: "attribute-changed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindUnknown, &UnknownKindError{Name: name}
}

// Change describes one mutation of a shared graph. The set of variants is
// closed: NodeInsert, NodeErase, AttributeInsert, AttributeErase and
// AttributeChanged.
type Change interface {
	Kind() Kind

	change()
}

// NodeInsert links Child under Owner. Origin materializes Child on
// participants where it is not mapped yet. A live *graph.Context origin hands
// out Child's state at apply time; Transaction records a *graph.Snapshot
// taken when the insert happened.
type NodeInsert struct {
	Owner  graph.ID
	Child  graph.ID
	Origin graph.Origin
}

type NodeErase struct {
	Owner graph.ID
	Child graph.ID
}

type AttributeInsert struct {
	Owner     graph.ID
	Attribute graph.ID
	Origin    graph.Origin
}

type AttributeErase struct {
	Owner     graph.ID
	Attribute graph.ID
}

// AttributeChanged carries a new attribute value.
type AttributeChanged struct {
	Owner     graph.ID
	Attribute graph.ID
	Value     []byte
}

func (NodeInsert) Kind() Kind       { return KindNodeInsert }
func (NodeErase) Kind() Kind        { return KindNodeErase }
func (AttributeInsert) Kind() Kind  { return KindAttributeInsert }
func (AttributeErase) Kind() Kind   { return KindAttributeErase }
func (AttributeChanged) Kind() Kind { return KindAttributeChanged }

func (NodeInsert) change()       {}
func (NodeErase) change()        {}
func (AttributeInsert) change()  {}
func (AttributeErase) change()   {}
func (AttributeChanged) change() {}

func (c NodeInsert) String() string {
	return fmt.Sprintf("%s %s <- %s", c.Kind(), c.Owner, c.Child)
}

func (c NodeErase) String() string {
	return fmt.Sprintf("%s %s -> %s", c.Kind(), c.Owner, c.Child)
}

func (c AttributeInsert) String() string {
	return fmt.Sprintf("%s %s <- %s", c.Kind(), c.Owner, c.Attribute)
}

func (c AttributeErase) String() string {
	return fmt.Sprintf("%s %s -> %s", c.Kind(), c.Owner, c.Attribute)
}

func (c AttributeChanged) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", c.Kind(), c.Attribute, len(c.Value))
}

// KindOf returns the kind of c, KindUnknown for nil.
func KindOf(c Change) Kind {
	if c == nil {
		return KindUnknown
	}
	return c.Kind()
}
