package sharedlog

import "errors"

var ErrNotFound = errors.New("commit record not found")

// CommitRecord is one published commit as it is stored in the log. Payload
// is the wire encoding of the commit.
type CommitRecord struct {
	ID      string
	Payload []byte
}

// SharedLog defines the abstraction of an append-only shared log system.
// Implementations can be backed by Scalog or kept in memory.
type SharedLog interface {
	// AppendCommit appends a commit to the shared log and returns where it
	// landed.
	AppendCommit(rec CommitRecord) (RecordRef, error)

	// ReadCommit retrieves a commit by its reference.
	ReadCommit(ref RecordRef) (CommitRecord, error)
}

// Replayer is implemented by logs that can enumerate their commits in GSN
// order, which lets a server rebuild its index after a restart.
type Replayer interface {
	// ReplayCommits calls handler for every commit in [from, to].
	ReplayCommits(from, to uint64, handler func(ref RecordRef, rec CommitRecord) error) error

	// Head returns the smallest GSN currently available.
	Head() uint64

	// Tail returns the largest GSN written so far.
	Tail() uint64
}
