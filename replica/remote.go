package replica

import (
	"context"

	"google.golang.org/grpc"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/proto/commitpb"
	"github.com/chn0318/dashlog/wire"
)

// Remote talks to a commit server over gRPC.
type Remote struct {
	client commitpb.CommitClient
}

func NewRemote(cc grpc.ClientConnInterface) *Remote {
	return &Remote{client: commitpb.NewCommitClient(cc)}
}

func (r *Remote) Publish(ctx context.Context, c *commit.Commit) (commitpb.Receipt, error) {
	req, err := wire.Encode(c)
	if err != nil {
		return commitpb.Receipt{}, err
	}
	resp, err := r.client.Publish(ctx, req)
	if err != nil {
		return commitpb.Receipt{}, err
	}
	return commitpb.ParsePublishResponse(resp), nil
}

func (r *Remote) Commits(ctx context.Context, from, limit int) ([]*commit.Commit, error) {
	resp, err := r.client.Fetch(ctx, commitpb.NewFetchRequest(from, limit))
	if err != nil {
		return nil, err
	}
	structs, _ := commitpb.ParseFetchResponse(resp)
	commits := make([]*commit.Commit, 0, len(structs))
	for _, s := range structs {
		c, err := wire.Decode(s)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}
