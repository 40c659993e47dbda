package graph

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeInsertErase(t *testing.T) {
	ctx := NewContext("local")
	parent := ctx.NewNode()
	child := ctx.NewNode()

	parent.Insert(child)
	parent.Insert(child)
	assert.Equal(t, 2, parent.ChildCount(child.ID()))

	assert.True(t, parent.Erase(child))
	assert.Equal(t, 1, parent.ChildCount(child.ID()))
	assert.True(t, parent.Erase(child))
	assert.False(t, parent.Erase(child))
	assert.Empty(t, parent.Children())
}

func TestUnmap(t *testing.T) {
	ctx := NewContext("local")
	n := ctx.NewNode()
	require.True(t, n.IsMapped())

	assert.True(t, ctx.Unmap(n.ID()))
	assert.False(t, n.IsMapped())
	assert.False(t, ctx.IsMapped(n.ID()))
	assert.False(t, ctx.Unmap(n.ID()))
}

func TestMapNodeMaterializesSubtree(t *testing.T) {
	src := NewContext("src")
	dst := NewContext("dst")

	root := src.NewNode()
	leaf := src.NewNode()
	color := src.NewAttribute([]byte("red"))
	root.Insert(leaf)
	leaf.InsertAttribute(color)

	mapped, err := src.MapNode(root.ID(), dst)
	require.NoError(t, err)
	assert.Equal(t, root.ID(), mapped.ID())
	assert.Same(t, dst, mapped.Context())
	assert.True(t, mapped.IsMapped())
	assert.Equal(t, 3, dst.Len())

	localLeaf := dst.Node(leaf.ID())
	require.NotNil(t, localLeaf)
	assert.NotSame(t, leaf, localLeaf)
	assert.True(t, mapped.HasChild(leaf.ID()))

	attrs := localLeaf.Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, []byte("red"), attrs[0].Value())

	// Mapping again reuses the local instance.
	again, err := src.MapNode(root.ID(), dst)
	require.NoError(t, err)
	assert.Same(t, mapped, again)
}

func TestMapNodeCycle(t *testing.T) {
	src := NewContext("src")
	dst := NewContext("dst")
	a := src.NewNode()
	b := src.NewNode()
	a.Insert(b)
	b.Insert(a)

	mapped, err := src.MapNode(a.ID(), dst)
	require.NoError(t, err)
	localB := dst.Node(b.ID())
	require.NotNil(t, localB)
	assert.True(t, mapped.HasChild(b.ID()))
	assert.True(t, localB.HasChild(a.ID()))
}

func TestMapUnknownObject(t *testing.T) {
	src := NewContext("src")
	dst := NewContext("dst")

	_, err := src.MapNode(NewID(), dst)
	assert.ErrorIs(t, err, ErrNotMapped)
	_, err = src.MapAttribute(NewID(), dst)
	assert.ErrorIs(t, err, ErrNotMapped)
}

func TestSnapshotSkipsDanglingChildren(t *testing.T) {
	// Run the skip paths with their trace lines enabled.
	require.NoError(t, flag.Set("v", "2"))
	defer flag.Set("v", "0")

	src := NewContext("src")
	root := src.NewNode()
	gone := src.NewNode()
	lost := src.NewAttribute([]byte("x"))
	root.Insert(gone)
	root.InsertAttribute(lost)
	src.Unmap(gone.ID())
	src.Unmap(lost.ID())

	var snap Snapshot
	require.NoError(t, src.Export(root.ID(), &snap))
	assert.Equal(t, 1, snap.Len())

	var copied Snapshot
	require.NoError(t, snap.Export(root.ID(), &copied))
	assert.Equal(t, 1, copied.Len())

	dst := NewContext("dst")
	mapped, err := copied.MapNode(root.ID(), dst)
	require.NoError(t, err)
	assert.Empty(t, mapped.ChildIDs())
	assert.Empty(t, mapped.AttributeIDs())
	assert.Equal(t, 1, dst.Len())
}

func TestApplyValue(t *testing.T) {
	ctx := NewContext("local")
	a := ctx.NewAttribute([]byte("v0"))
	assert.Zero(t, a.Applied())

	ApplyValue(a, []byte("v1"))
	ApplyValue(a, []byte("v1"))
	assert.Equal(t, []byte("v1"), a.Value())
	assert.EqualValues(t, 2, a.Applied())
}
