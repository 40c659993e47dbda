package memorylog

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/chn0318/dashlog/sharedlog"
)

type MemoryLog struct {
	commitRecs map[uint64]sharedlog.CommitRecord
	tail       uint64
	mu         sync.RWMutex
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		commitRecs: make(map[uint64]sharedlog.CommitRecord),
	}
}

func (l *MemoryLog) AppendCommit(rec sharedlog.CommitRecord) (sharedlog.RecordRef, error) {
	rec.Payload = bytes.Clone(rec.Payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tail++
	l.commitRecs[l.tail] = rec
	return sharedlog.ShardlessRef(l.tail), nil
}

func (l *MemoryLog) ReadCommit(ref sharedlog.RecordRef) (sharedlog.CommitRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.commitRecs[ref.GSN]
	if !ok {
		return sharedlog.CommitRecord{}, fmt.Errorf("gsn=%d: %w", ref.GSN, sharedlog.ErrNotFound)
	}
	return rec, nil
}

func (l *MemoryLog) ReplayCommits(from, to uint64, handler func(sharedlog.RecordRef, sharedlog.CommitRecord) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for gsn := from; gsn <= to; gsn++ {
		rec, ok := l.commitRecs[gsn]
		if !ok {
			continue
		}
		if err := handler(sharedlog.ShardlessRef(gsn), rec); err != nil {
			return err
		}
	}
	return nil
}

func (l *MemoryLog) Head() uint64 { return 1 }
func (l *MemoryLog) Tail() uint64 { l.mu.RLock(); defer l.mu.RUnlock(); return l.tail }
