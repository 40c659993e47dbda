// Package wire converts commits to and from protobuf Struct messages so they
// can travel through the shared log and the gRPC service.
//
// Every insert carries its own snapshot of the inserted object and whatever
// is reachable from it, exported from the change's origin. The decoder hands
// that snapshot back to the change as its origin.
package wire

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/graph"
)

const (
	fieldID         = "id"
	fieldChanges    = "changes"
	fieldNodes      = "nodes"
	fieldAttributes = "attributes"
	fieldKind       = "kind"
	fieldOwner      = "owner"
	fieldChild      = "child"
	fieldAttribute  = "attribute"
	fieldValue      = "value"
	fieldChildren   = "children"
)

// Encode builds the message for c.
func Encode(c *commit.Commit) (*structpb.Struct, error) {
	changes := make([]any, 0, c.Len())
	for i, change := range c.All() {
		m := map[string]any{fieldKind: commit.KindOf(change).String()}
		switch ch := change.(type) {
		case commit.NodeInsert:
			if err := export(ch.Origin, ch.Child, m); err != nil {
				return nil, fmt.Errorf("encode change %d: %w", i, err)
			}
			m[fieldOwner], m[fieldChild] = ch.Owner.String(), ch.Child.String()
		case commit.NodeErase:
			m[fieldOwner], m[fieldChild] = ch.Owner.String(), ch.Child.String()
		case commit.AttributeInsert:
			if err := export(ch.Origin, ch.Attribute, m); err != nil {
				return nil, fmt.Errorf("encode change %d: %w", i, err)
			}
			m[fieldOwner], m[fieldAttribute] = ch.Owner.String(), ch.Attribute.String()
		case commit.AttributeErase:
			m[fieldOwner], m[fieldAttribute] = ch.Owner.String(), ch.Attribute.String()
		case commit.AttributeChanged:
			m[fieldOwner], m[fieldAttribute] = ch.Owner.String(), ch.Attribute.String()
			m[fieldValue] = base64.StdEncoding.EncodeToString(ch.Value)
		default:
			return nil, &commit.UnknownChangeError{Index: i, Change: change}
		}
		changes = append(changes, m)
	}

	return structpb.NewStruct(map[string]any{
		fieldID:      c.ID().String(),
		fieldChanges: changes,
	})
}

// Decode rebuilds a commit from its message. A change kind this build does
// not know fails with *commit.UnknownKindError.
func Decode(s *structpb.Struct) (*commit.Commit, error) {
	fields := s.GetFields()
	id, err := ulid.Parse(fields[fieldID].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("decode commit id: %w", err)
	}

	list := fields[fieldChanges].GetListValue().GetValues()
	changes := make([]commit.Change, 0, len(list))
	for i, v := range list {
		change, err := decodeChange(v.GetStructValue().GetFields())
		if err != nil {
			return nil, fmt.Errorf("decode commit %s change %d: %w", id, i, err)
		}
		changes = append(changes, change)
	}
	return commit.FromChanges(id, changes), nil
}

// Marshal encodes c as protojson bytes.
func Marshal(c *commit.Commit) ([]byte, error) {
	s, err := Encode(c)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

func Unmarshal(data []byte) (*commit.Commit, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal commit: %w", err)
	}
	return Decode(&s)
}

// export writes the snapshot of the object id, taken from origin, into the
// change message m.
func export(origin graph.Origin, id graph.ID, m map[string]any) error {
	if origin == nil {
		return fmt.Errorf("%s has no origin: %w", id, graph.ErrNotMapped)
	}
	var snap graph.Snapshot
	if err := origin.Export(id, &snap); err != nil {
		return err
	}

	nodes := make(map[string]any, len(snap.Nodes))
	for id, st := range snap.Nodes {
		nodes[id.String()] = map[string]any{
			fieldChildren:   ids(st.Children),
			fieldAttributes: ids(st.Attributes),
		}
	}
	attrs := make(map[string]any, len(snap.Attributes))
	for id, st := range snap.Attributes {
		attrs[id.String()] = map[string]any{
			fieldValue: base64.StdEncoding.EncodeToString(st.Value),
		}
	}
	m[fieldNodes], m[fieldAttributes] = nodes, attrs
	return nil
}

func decodeChange(fields map[string]*structpb.Value) (commit.Change, error) {
	kind, err := commit.ParseKind(fields[fieldKind].GetStringValue())
	if err != nil {
		return nil, err
	}
	owner, err := idField(fields, fieldOwner)
	if err != nil {
		return nil, err
	}

	switch kind {
	case commit.KindNodeInsert, commit.KindNodeErase:
		child, err := idField(fields, fieldChild)
		if err != nil {
			return nil, err
		}
		if kind == commit.KindNodeInsert {
			snap, err := decodeSnapshot(fields)
			if err != nil {
				return nil, err
			}
			return commit.NodeInsert{Owner: owner, Child: child, Origin: snap}, nil
		}
		return commit.NodeErase{Owner: owner, Child: child}, nil
	}

	attr, err := idField(fields, fieldAttribute)
	if err != nil {
		return nil, err
	}
	switch kind {
	case commit.KindAttributeInsert:
		snap, err := decodeSnapshot(fields)
		if err != nil {
			return nil, err
		}
		return commit.AttributeInsert{Owner: owner, Attribute: attr, Origin: snap}, nil
	case commit.KindAttributeErase:
		return commit.AttributeErase{Owner: owner, Attribute: attr}, nil
	case commit.KindAttributeChanged:
		value, err := base64.StdEncoding.DecodeString(fields[fieldValue].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode value: %w", err)
		}
		return commit.AttributeChanged{Owner: owner, Attribute: attr, Value: value}, nil
	}
	return nil, &commit.UnknownKindError{Name: kind.String()}
}

func decodeSnapshot(fields map[string]*structpb.Value) (*graph.Snapshot, error) {
	snap := &graph.Snapshot{
		Nodes:      make(map[graph.ID]graph.NodeState),
		Attributes: make(map[graph.ID]graph.AttributeState),
	}
	for key, v := range fields[fieldNodes].GetStructValue().GetFields() {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("decode node id %q: %w", key, err)
		}
		nf := v.GetStructValue().GetFields()
		children, err := parseIDs(nf[fieldChildren])
		if err != nil {
			return nil, err
		}
		attrs, err := parseIDs(nf[fieldAttributes])
		if err != nil {
			return nil, err
		}
		snap.Nodes[id] = graph.NodeState{Children: children, Attributes: attrs}
	}
	for key, v := range fields[fieldAttributes].GetStructValue().GetFields() {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("decode attribute id %q: %w", key, err)
		}
		value, err := base64.StdEncoding.DecodeString(v.GetStructValue().GetFields()[fieldValue].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode attribute %s value: %w", id, err)
		}
		snap.Attributes[id] = graph.AttributeState{Value: value}
	}
	return snap, nil
}

func idField(fields map[string]*structpb.Value, name string) (graph.ID, error) {
	id, err := uuid.Parse(fields[name].GetStringValue())
	if err != nil {
		return graph.ID{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return id, nil
}

func ids(list []graph.ID) []any {
	out := make([]any, len(list))
	for i, id := range list {
		out[i] = id.String()
	}
	return out
}

func parseIDs(v *structpb.Value) ([]graph.ID, error) {
	values := v.GetListValue().GetValues()
	out := make([]graph.ID, 0, len(values))
	for _, item := range values {
		id, err := uuid.Parse(item.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode id %q: %w", item.GetStringValue(), err)
		}
		out = append(out, id)
	}
	return out, nil
}
