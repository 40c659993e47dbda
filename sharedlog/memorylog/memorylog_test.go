package memorylog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chn0318/dashlog/sharedlog"
)

func TestAppendRead(t *testing.T) {
	l := NewMemoryLog()
	var _ sharedlog.SharedLog = l
	var _ sharedlog.Replayer = l

	payload := []byte("one")
	ref, err := l.AppendCommit(sharedlog.CommitRecord{ID: "c1", Payload: payload})
	require.NoError(t, err)
	assert.EqualValues(t, 1, ref.GSN)
	payload[0] = 'X'

	rec, err := l.ReadCommit(ref)
	require.NoError(t, err)
	assert.Equal(t, "c1", rec.ID)
	assert.Equal(t, []byte("one"), rec.Payload)

	_, err = l.ReadCommit(sharedlog.ShardlessRef(9))
	assert.ErrorIs(t, err, sharedlog.ErrNotFound)
}

func TestReplayCommits(t *testing.T) {
	l := NewMemoryLog()
	for _, id := range []string{"a", "b", "c"} {
		_, err := l.AppendCommit(sharedlog.CommitRecord{ID: id})
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, l.Tail())

	var ids []string
	err := l.ReplayCommits(l.Head(), l.Tail(), func(ref sharedlog.RecordRef, rec sharedlog.CommitRecord) error {
		ids = append(ids, rec.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
