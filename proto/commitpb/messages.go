package commitpb

import (
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldGSN      = "gsn"
	fieldShard    = "shard"
	fieldPosition = "position"
	fieldFrom     = "from"
	fieldLimit    = "limit"
	fieldCommits  = "commits"
	fieldNext     = "next"
)

// Receipt tells a publisher where its commit landed.
type Receipt struct {
	GSN      uint64
	ShardID  uint32
	Position int
}

func NewPublishResponse(r Receipt) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldGSN:      structpb.NewNumberValue(float64(r.GSN)),
		fieldShard:    structpb.NewNumberValue(float64(r.ShardID)),
		fieldPosition: structpb.NewNumberValue(float64(r.Position)),
	}}
}

func ParsePublishResponse(s *structpb.Struct) Receipt {
	f := s.GetFields()
	return Receipt{
		GSN:      uint64(f[fieldGSN].GetNumberValue()),
		ShardID:  uint32(f[fieldShard].GetNumberValue()),
		Position: int(f[fieldPosition].GetNumberValue()),
	}
}

func NewFetchRequest(from, limit int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldFrom:  structpb.NewNumberValue(float64(from)),
		fieldLimit: structpb.NewNumberValue(float64(limit)),
	}}
}

func ParseFetchRequest(s *structpb.Struct) (from, limit int) {
	f := s.GetFields()
	return int(f[fieldFrom].GetNumberValue()), int(f[fieldLimit].GetNumberValue())
}

// NewFetchResponse carries encoded commits and the position following the
// last one.
func NewFetchResponse(commits []*structpb.Struct, next int) *structpb.Struct {
	values := make([]*structpb.Value, len(commits))
	for i, c := range commits {
		values[i] = structpb.NewStructValue(c)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldCommits: structpb.NewListValue(&structpb.ListValue{Values: values}),
		fieldNext:    structpb.NewNumberValue(float64(next)),
	}}
}

func ParseFetchResponse(s *structpb.Struct) (commits []*structpb.Struct, next int) {
	f := s.GetFields()
	for _, v := range f[fieldCommits].GetListValue().GetValues() {
		commits = append(commits, v.GetStructValue())
	}
	return commits, int(f[fieldNext].GetNumberValue())
}
