package commit

import (
	"errors"
	"fmt"

	"github.com/chn0318/dashlog/graph"
)

var ErrTransactionClosed = errors.New("transaction already committed")

// UnknownChangeError reports a change apply cannot dispatch. It means the
// producer and the consumer disagree on the change schema.
type UnknownChangeError struct {
	Index  int
	Change Change
}

func (e *UnknownChangeError) Error() string {
	return fmt.Sprintf("commit: unknown change %d (%s)", e.Index, KindOf(e.Change))
}

// UnknownKindError reports a kind name that does not name a change variant.
type UnknownKindError struct {
	Name string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("commit: unknown change kind %q", e.Name)
}

// UnresolvedAttributeError reports an AttributeChanged whose attribute is not
// materialized in the target context.
type UnresolvedAttributeError struct {
	Index     int
	Attribute graph.ID
	Context   string
}

func (e *UnresolvedAttributeError) Error() string {
	return fmt.Sprintf("commit: change %d: attribute %s not resolved in %s", e.Index, e.Attribute, e.Context)
}
