package sharedlog

import "fmt"

// RecordRef locates a record in the underlying log. Scalog needs both the
// shard and the GSN; unsharded logs leave ShardID at 0.
type RecordRef struct {
	GSN     uint64
	ShardID uint32
}

func ShardlessRef(gsn uint64) RecordRef             { return RecordRef{GSN: gsn} }
func ShardedRef(shard uint32, gsn uint64) RecordRef { return RecordRef{ShardID: shard, GSN: gsn} }

func (r RecordRef) String() string { return fmt.Sprintf("%d/%d", r.ShardID, r.GSN) }
