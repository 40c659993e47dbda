package wire

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/graph"
)

func TestRoundTrip(t *testing.T) {
	producer := graph.NewContext("producer")
	consumer := graph.NewContext("consumer")
	root := producer.NewNode()
	_, err := producer.MapNode(root.ID(), consumer)
	require.NoError(t, err)

	child := producer.NewNode()
	grandchild := producer.NewNode()
	child.Insert(grandchild)
	label := producer.NewAttribute([]byte("label"))
	gone := producer.NewNode()

	tx := commit.Begin(producer)
	require.NoError(t, tx.InsertNode(root, child))
	require.NoError(t, tx.InsertAttribute(child, label))
	require.NoError(t, tx.SetAttribute(child, label, []byte("renamed")))
	require.NoError(t, tx.InsertNode(root, gone))
	require.NoError(t, tx.EraseNode(root, gone))
	require.NoError(t, tx.EraseAttribute(child, label))
	c, err := tx.Commit()
	require.NoError(t, err)

	data, err := Marshal(c)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, c.ID(), decoded.ID())
	require.Equal(t, c.Len(), decoded.Len())
	for i := 0; i < c.Len(); i++ {
		assert.Equal(t, c.At(i).Kind(), decoded.At(i).Kind())
	}
	assert.Equal(t, commit.AttributeChanged{Owner: child.ID(), Attribute: label.ID(), Value: []byte("renamed")}, decoded.At(2))

	require.NoError(t, decoded.Apply(consumer))
	localRoot := consumer.Node(root.ID())
	assert.True(t, localRoot.HasChild(child.ID()))
	assert.False(t, localRoot.HasChild(gone.ID()))

	localChild := consumer.Node(child.ID())
	require.NotNil(t, localChild)
	assert.True(t, localChild.HasChild(grandchild.ID()))
	assert.True(t, consumer.IsMapped(grandchild.ID()))
	assert.False(t, localChild.HasAttribute(label.ID()))
	assert.Equal(t, []byte("renamed"), consumer.Attribute(label.ID()).Value())
}

func TestReplayOverWireMatchesProducer(t *testing.T) {
	producer := graph.NewContext("producer")
	consumer := graph.NewContext("consumer")
	root := producer.NewNode()
	_, err := producer.MapNode(root.ID(), consumer)
	require.NoError(t, err)

	child := producer.NewNode()
	grand := producer.NewNode()
	label := producer.NewAttribute([]byte("a"))

	tx := commit.Begin(producer)
	require.NoError(t, tx.InsertNode(root, child))
	require.NoError(t, tx.InsertNode(child, grand))
	require.NoError(t, tx.InsertAttribute(grand, label))
	c, err := tx.Commit()
	require.NoError(t, err)

	data, err := Marshal(c)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	require.NoError(t, decoded.Apply(consumer))

	for _, id := range []graph.ID{root.ID(), child.ID(), grand.ID()} {
		want, got := producer.Node(id), consumer.Node(id)
		require.NotNil(t, got)
		assert.True(t, slices.Equal(want.ChildIDs(), got.ChildIDs()),
			"children of %s: %v != %v", id, want.ChildIDs(), got.ChildIDs())
		assert.True(t, slices.Equal(want.AttributeIDs(), got.AttributeIDs()),
			"attributes of %s: %v != %v", id, want.AttributeIDs(), got.AttributeIDs())
	}
	assert.Equal(t, 1, consumer.Node(child.ID()).ChildCount(grand.ID()))
}

func TestDecodeUnknownKind(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"id": "01HZY8V3A0J6P5Z8QX1Q2W3E4R",
		"changes": []any{
			map[string]any{"kind": "node-move", "owner": graph.NewID().String()},
		},
	})
	require.NoError(t, err)

	_, err = Decode(s)
	var unknown *commit.UnknownKindError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "node-move", unknown.Name)
}

func TestDecodeBadInput(t *testing.T) {
	_, err := Unmarshal([]byte("{"))
	assert.Error(t, err)

	s, err := structpb.NewStruct(map[string]any{"id": "not-a-ulid"})
	require.NoError(t, err)
	_, err = Decode(s)
	assert.Error(t, err)

	s, err = structpb.NewStruct(map[string]any{
		"id":      "01HZY8V3A0J6P5Z8QX1Q2W3E4R",
		"changes": []any{map[string]any{"kind": "node-erase", "owner": "x"}},
	})
	require.NoError(t, err)
	_, err = Decode(s)
	assert.ErrorContains(t, err, "decode owner")
}

func TestEncodeRejectsUnknownChange(t *testing.T) {
	c := commit.New()
	c.Add(nil)
	_, err := Encode(c)
	var unknown *commit.UnknownChangeError
	assert.ErrorAs(t, err, &unknown)
}

func TestEncodeInsertWithoutOrigin(t *testing.T) {
	c := commit.New()
	c.Add(commit.NodeInsert{Owner: graph.NewID(), Child: graph.NewID()})
	_, err := Encode(c)
	assert.ErrorIs(t, err, graph.ErrNotMapped)
}
