package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/graph"
	"github.com/chn0318/dashlog/replica"
)

var (
	addr     string
	children int
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "dashlog-client",
	Short: "Publish a small graph and replay it into a second context",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return run(ctx, replica.NewRemote(conn))
	},
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "localhost:50051", "commit server address")
	rootCmd.Flags().IntVar(&children, "children", 3, "children to insert under the root")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "overall timeout")
	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)
}

func run(ctx context.Context, remote *replica.Remote) error {
	producer := graph.NewContext("producer")
	root := producer.NewNode()

	// The consumer joins with the root only; everything else arrives as commits.
	consumer := graph.NewContext("consumer")
	if _, err := producer.MapNode(root.ID(), consumer); err != nil {
		return err
	}

	tx := commit.Begin(producer)
	for i := 0; i < children; i++ {
		child := producer.NewNode()
		if err := tx.InsertNode(root, child); err != nil {
			return err
		}
		if err := tx.InsertAttribute(child, producer.NewAttribute([]byte(fmt.Sprintf("child-%d", i)))); err != nil {
			return err
		}
	}
	c, err := tx.Commit()
	if err != nil {
		return err
	}
	receipt, err := remote.Publish(ctx, c)
	if err != nil {
		return err
	}
	glog.Infof("published %s at position %d (gsn %d)\n", c.ID(), receipt.Position, receipt.GSN)

	// Earlier commits belong to other producers; start at our own.
	r := replica.NewAt(consumer, 64, receipt.Position)
	n, err := r.Sync(ctx, remote)
	if err != nil {
		return err
	}
	glog.Infof("applied %d commits from position %d\n", n, receipt.Position)

	local := consumer.Node(root.ID())
	for _, child := range local.Children() {
		for _, a := range child.Attributes() {
			fmt.Printf("%s %s=%q\n", child.ID(), a.ID(), a.Value())
		}
	}
	return nil
}

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Fatalf("client: %v", err)
	}
}
