package replica

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/commitserver"
	"github.com/chn0318/dashlog/graph"
	"github.com/chn0318/dashlog/proto/commitpb"
	"github.com/chn0318/dashlog/sharedlog/memorylog"
)

type fixture struct {
	server   *commitserver.Server
	producer *graph.Context
	root     *graph.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := commitserver.NewServer(memorylog.NewMemoryLog())
	require.NoError(t, err)
	producer := graph.NewContext("producer")
	return &fixture{server: s, producer: producer, root: producer.NewNode()}
}

// join returns a replica whose graph already holds the producer's root.
func (f *fixture) join(t *testing.T, name string) *Replica {
	t.Helper()
	g := graph.NewContext(name)
	_, err := f.producer.MapNode(f.root.ID(), g)
	require.NoError(t, err)
	return New(g, 2)
}

func (f *fixture) insertChild(t *testing.T) *commit.Commit {
	t.Helper()
	tx := commit.Begin(f.producer)
	require.NoError(t, tx.InsertNode(f.root, f.producer.NewNode()))
	c, err := tx.Commit()
	require.NoError(t, err)
	return c
}

func TestSyncAppliesOnce(t *testing.T) {
	f := newFixture(t)
	r := f.join(t, "replica")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.server.Append(f.insertChild(t))
		require.NoError(t, err)
	}

	n, err := r.Sync(ctx, f.server)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, r.Next())

	n, err = r.Sync(ctx, f.server)
	require.NoError(t, err)
	assert.Zero(t, n)

	local := r.Graph().Node(f.root.ID())
	require.Len(t, local.ChildIDs(), 5)
	for _, id := range f.root.ChildIDs() {
		assert.Equal(t, 1, local.ChildCount(id))
	}

	_, err = f.server.Append(f.insertChild(t))
	require.NoError(t, err)
	n, err = r.Sync(ctx, f.server)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, local.ChildIDs(), 6)
}

func TestSyncConcurrentCallers(t *testing.T) {
	f := newFixture(t)
	r := f.join(t, "replica")
	for i := 0; i < 20; i++ {
		_, err := f.server.Append(f.insertChild(t))
		require.NoError(t, err)
	}

	total := make(chan int, 4)
	for i := 0; i < 4; i++ {
		go func() {
			n, _ := r.Sync(context.Background(), f.server)
			total <- n
		}()
	}
	sum := 0
	for i := 0; i < 4; i++ {
		sum += <-total
	}
	assert.Equal(t, 20, sum)
	assert.Len(t, r.Graph().Node(f.root.ID()).ChildIDs(), 20)
}

func TestSyncStopsAtFailingCommit(t *testing.T) {
	f := newFixture(t)
	r := f.join(t, "replica")

	_, err := f.server.Append(f.insertChild(t))
	require.NoError(t, err)
	bad := commit.New()
	bad.Add(commit.AttributeChanged{Attribute: graph.NewID(), Value: []byte("x")})
	_, err = f.server.Append(bad)
	require.NoError(t, err)
	_, err = f.server.Append(f.insertChild(t))
	require.NoError(t, err)

	n, err := r.Sync(context.Background(), f.server)
	var unresolved *commit.UnresolvedAttributeError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Next())

	n, err = r.Sync(context.Background(), f.server)
	assert.ErrorAs(t, err, &unresolved)
	assert.Zero(t, n)
	assert.Equal(t, 1, r.Next())
	assert.Equal(t, err, r.Err())
}

func TestSyncNeverReappliesPartialCommit(t *testing.T) {
	f := newFixture(t)
	r := f.join(t, "replica")
	kid := f.producer.NewNode()

	tx := commit.Begin(f.producer)
	require.NoError(t, tx.InsertNode(f.root, kid))
	c, err := tx.Commit()
	require.NoError(t, err)
	c.Add(commit.AttributeChanged{Owner: kid.ID(), Attribute: graph.NewID(), Value: []byte("x")})
	_, err = f.server.Append(c)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := r.Sync(context.Background(), f.server)
		require.Error(t, err)
	}
	assert.Equal(t, 1, f.root.ChildCount(kid.ID()))
	assert.Equal(t, 1, r.Graph().Node(f.root.ID()).ChildCount(kid.ID()))
	assert.Zero(t, r.Next())
}

func TestNewAtSkipsEarlierCommits(t *testing.T) {
	f := newFixture(t)
	_, err := f.server.Append(f.insertChild(t))
	require.NoError(t, err)
	receipt, err := f.server.Append(f.insertChild(t))
	require.NoError(t, err)

	g := graph.NewContext("late")
	_, err = f.producer.MapNode(f.root.ID(), g)
	require.NoError(t, err)
	r := NewAt(g, 2, receipt.Position)

	n, err := r.Sync(context.Background(), f.server)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, r.Next())
}

func TestSyncCanceled(t *testing.T) {
	f := newFixture(t)
	r := f.join(t, "replica")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Sync(ctx, f.server)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoteOverGRPC(t *testing.T) {
	f := newFixture(t)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	commitpb.RegisterCommitServer(srv, f.server)
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	remote := NewRemote(conn)
	ctx := context.Background()
	r := f.join(t, "remote-replica")

	child := f.producer.NewNode()
	label := f.producer.NewAttribute([]byte("hello"))
	tx := commit.Begin(f.producer)
	require.NoError(t, tx.InsertNode(f.root, child))
	require.NoError(t, tx.InsertAttribute(child, label))
	c, err := tx.Commit()
	require.NoError(t, err)

	receipt, err := remote.Publish(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 0, receipt.Position)

	n, err := r.Sync(ctx, remote)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	local := r.Graph().Node(child.ID())
	require.NotNil(t, local)
	assert.True(t, r.Graph().Node(f.root.ID()).HasChild(child.ID()))
	assert.True(t, local.HasAttribute(label.ID()))
	assert.Equal(t, []byte("hello"), r.Graph().Attribute(label.ID()).Value())
}
