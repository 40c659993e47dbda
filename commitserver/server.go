package commitserver

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/proto/commitpb"
	"github.com/chn0318/dashlog/sharedlog"
	"github.com/chn0318/dashlog/vector"
	"github.com/chn0318/dashlog/wire"
)

const MaxFetch = 256

// Server publishes commits to a shared log and hands them out in publish
// order. The index maps a position to the commit's place in the log; it only
// ever grows, so positions stay valid while publishers append to it.
type Server struct {
	commitpb.UnimplementedCommitServer
	sharedLog sharedlog.SharedLog
	index     *vector.Vector[sharedlog.RecordRef]
}

// NewServer creates a server on sharedLog. A log that can replay its
// commits seeds the index with them.
func NewServer(sharedLog sharedlog.SharedLog) (*Server, error) {
	s := &Server{
		sharedLog: sharedLog,
		index:     vector.New[sharedlog.RecordRef](),
	}
	if r, ok := sharedLog.(sharedlog.Replayer); ok && r.Tail() >= r.Head() {
		err := r.ReplayCommits(r.Head(), r.Tail(), func(ref sharedlog.RecordRef, _ sharedlog.CommitRecord) error {
			s.index.PushBack(ref)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("rebuild index: %w", err)
		}
		glog.Infof("[commitserver] index rebuilt with %d commits\n", s.index.Len())
	}
	indexLength.Set(float64(s.index.Len()))
	return s, nil
}

// Len returns the number of published commits.
func (s *Server) Len() int { return s.index.Len() }

// Append publishes c.
func (s *Server) Append(c *commit.Commit) (commitpb.Receipt, error) {
	payload, err := wire.Marshal(c)
	if err != nil {
		return commitpb.Receipt{}, err
	}
	return s.appendPayload(c.ID().String(), payload)
}

func (s *Server) appendPayload(id string, payload []byte) (commitpb.Receipt, error) {
	ref, err := s.sharedLog.AppendCommit(sharedlog.CommitRecord{ID: id, Payload: payload})
	if err != nil {
		return commitpb.Receipt{}, fmt.Errorf("append commit %s: %w", id, err)
	}
	pos := s.index.PushBack(ref)
	publishedCommits.Inc()
	indexLength.Set(float64(s.index.Len()))
	if glog.V(2) {
		glog.Infof("[commitserver] commit %s at %d (%s)\n", id, pos, ref)
	}
	return commitpb.Receipt{GSN: ref.GSN, ShardID: ref.ShardID, Position: pos}, nil
}

// Commits returns up to limit decoded commits starting at position from.
func (s *Server) Commits(ctx context.Context, from, limit int) ([]*commit.Commit, error) {
	recs, err := s.read(ctx, from, limit)
	if err != nil {
		return nil, err
	}
	commits := make([]*commit.Commit, 0, len(recs))
	for _, rec := range recs {
		c, err := wire.Unmarshal(rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", rec.ID, err)
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func (s *Server) read(ctx context.Context, from, limit int) ([]sharedlog.CommitRecord, error) {
	if from < 0 {
		return nil, fmt.Errorf("negative position %d", from)
	}
	if limit <= 0 || limit > MaxFetch {
		limit = MaxFetch
	}
	end := min(from+limit, s.index.Len())

	var recs []sharedlog.CommitRecord
	for pos := from; pos < end; pos++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.sharedLog.ReadCommit(s.index.Get(pos))
		if err != nil {
			return nil, fmt.Errorf("read position %d: %w", pos, err)
		}
		recs = append(recs, rec)
	}
	fetchedCommits.Add(float64(len(recs)))
	return recs, nil
}

func (s *Server) Publish(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := wire.Decode(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode commit: %v", err)
	}
	payload, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "marshal commit: %v", err)
	}
	receipt, err := s.appendPayload(c.ID().String(), payload)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "%v", err)
	}
	return commitpb.NewPublishResponse(receipt), nil
}

func (s *Server) Fetch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	from, limit := commitpb.ParseFetchRequest(req)
	recs, err := s.read(ctx, from, limit)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	commits := make([]*structpb.Struct, 0, len(recs))
	for _, rec := range recs {
		var c structpb.Struct
		if err := protojson.Unmarshal(rec.Payload, &c); err != nil {
			return nil, status.Errorf(codes.DataLoss, "commit %s: %v", rec.ID, err)
		}
		commits = append(commits, &c)
	}
	return commitpb.NewFetchResponse(commits, from+len(commits)), nil
}
