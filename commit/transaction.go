package commit

import (
	"github.com/chn0318/dashlog/graph"
)

// Transaction mutates a producer's graph and records each mutation in a
// commit. A transaction is used by one goroutine.
type Transaction struct {
	ctx    *graph.Context
	commit *Commit
}

// Begin starts a transaction on the producer context ctx.
func Begin(ctx *graph.Context) *Transaction {
	return &Transaction{ctx: ctx, commit: New()}
}

func (tx *Transaction) Context() *graph.Context { return tx.ctx }

// InsertNode links child under parent. The change carries child's subtree
// as it is now, so later changes in the same transaction are not folded into
// the insert.
func (tx *Transaction) InsertNode(parent, child *graph.Node) error {
	if tx.commit == nil {
		return ErrTransactionClosed
	}
	snap, err := tx.capture(child.ID())
	if err != nil {
		return err
	}
	parent.Insert(child)
	tx.commit.Add(NodeInsert{Owner: parent.ID(), Child: child.ID(), Origin: snap})
	return nil
}

func (tx *Transaction) EraseNode(parent, child *graph.Node) error {
	if tx.commit == nil {
		return ErrTransactionClosed
	}
	parent.Erase(child)
	tx.commit.Add(NodeErase{Owner: parent.ID(), Child: child.ID()})
	return nil
}

func (tx *Transaction) InsertAttribute(owner *graph.Node, attr *graph.Attribute) error {
	if tx.commit == nil {
		return ErrTransactionClosed
	}
	snap, err := tx.capture(attr.ID())
	if err != nil {
		return err
	}
	owner.InsertAttribute(attr)
	tx.commit.Add(AttributeInsert{Owner: owner.ID(), Attribute: attr.ID(), Origin: snap})
	return nil
}

func (tx *Transaction) EraseAttribute(owner *graph.Node, attr *graph.Attribute) error {
	if tx.commit == nil {
		return ErrTransactionClosed
	}
	owner.EraseAttribute(attr)
	tx.commit.Add(AttributeErase{Owner: owner.ID(), Attribute: attr.ID()})
	return nil
}

// SetAttribute changes the value locally and records the new value.
func (tx *Transaction) SetAttribute(owner *graph.Node, attr *graph.Attribute, value []byte) error {
	if tx.commit == nil {
		return ErrTransactionClosed
	}
	attr.Set(value)
	tx.commit.Add(AttributeChanged{Owner: owner.ID(), Attribute: attr.ID(), Value: attr.Value()})
	return nil
}

func (tx *Transaction) capture(id graph.ID) (*graph.Snapshot, error) {
	snap := &graph.Snapshot{}
	if err := tx.ctx.Export(id, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Commit closes the transaction and hands the recorded commit to the caller.
func (tx *Transaction) Commit() (*Commit, error) {
	if tx.commit == nil {
		return nil, ErrTransactionClosed
	}
	c := tx.commit
	tx.commit = nil
	return c, nil
}
