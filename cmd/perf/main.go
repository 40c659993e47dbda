package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/chn0318/dashlog/commit"
	"github.com/chn0318/dashlog/graph"
	"github.com/chn0318/dashlog/internal/stress"
	"github.com/chn0318/dashlog/replica"
	"github.com/chn0318/dashlog/vector"
)

var rootCmd = &cobra.Command{
	Use:   "dashlog-perf",
	Short: "Benchmarks for the vector and the commit server",
}

var (
	loop       int
	maxWorkers int
)

var vectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Serial and concurrent vector rounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		tm, err := stress.RunSerial(vector.New[int](), loop)
		if err != nil {
			return fmt.Errorf("serial: %w", err)
		}
		fmt.Printf("serial %d: fill %v, copy %v, erase %v, flush %v\n\n", loop, tm.Phase, tm.Copy, tm.Erase, tm.Flush)

		h := stress.NewVectorHarness(maxWorkers, loop)
		defer h.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "readers\twriters\tphase\tcopy\terase\tflush\telements")
		for readers := 0; readers <= maxWorkers; readers = next(readers) {
			for writers := 1; writers <= maxWorkers; writers *= 2 {
				tm, err := stress.RunVectorRound(h, readers, writers, loop)
				if err != nil {
					w.Flush()
					return fmt.Errorf("readers %d writers %d: %w", readers, writers, err)
				}
				fmt.Fprintf(w, "%d\t%d\t%v\t%v\t%v\t%v\t%d\n",
					tm.Readers, tm.Writers, tm.Phase, tm.Copy, tm.Erase, tm.Flush, tm.Elements)
			}
		}
		return w.Flush()
	},
}

func next(n int) int {
	if n == 0 {
		return 1
	}
	return n * 2
}

var (
	addr        string
	totalReq    int
	concurrency int
	changes     int
	valueSize   int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish commits against a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return err
		}
		defer conn.Close()
		return publish(replica.NewRemote(conn))
	},
}

func publish(remote *replica.Remote) error {
	glog.Infof("publish benchmark: addr=%s, total=%d, concurrency=%d, changes=%d, value-bytes=%d\n",
		addr, totalReq, concurrency, changes, valueSize)

	value := make([]byte, valueSize)
	for i := range value {
		value[i] = byte(rand.Intn(256))
	}

	jobs := make(chan int, totalReq)
	for i := 0; i < totalReq; i++ {
		jobs <- i
	}
	close(jobs)

	var failed atomic.Int64
	start := time.Now()
	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			producer := graph.NewContext(fmt.Sprintf("perf-%d", w))
			root := producer.NewNode()
			attrs := make([]*graph.Attribute, changes)
			for i := range attrs {
				attrs[i] = producer.NewAttribute(nil)
				root.InsertAttribute(attrs[i])
			}
			for range jobs {
				tx := commit.Begin(producer)
				for _, a := range attrs {
					if err := tx.SetAttribute(root, a, value); err != nil {
						return err
					}
				}
				if err := tx.InsertNode(root, producer.NewNode()); err != nil {
					return err
				}
				c, err := tx.Commit()
				if err != nil {
					return err
				}
				rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				_, err = remote.Publish(rctx, c)
				cancel()
				if err != nil {
					failed.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start).Seconds()

	ok := totalReq - int(failed.Load())
	fmt.Printf("total %d, ok %d, failed %d\n", totalReq, ok, failed.Load())
	fmt.Printf("elapsed %.3f s, %.2f commits/s, %.2f MB/s\n",
		elapsed, float64(ok)/elapsed, float64(ok*changes*valueSize)/(1024*1024)/elapsed)
	return nil
}

func init() {
	vectorCmd.Flags().IntVar(&loop, "loop", 100000, "elements per round")
	vectorCmd.Flags().IntVar(&maxWorkers, "max-workers", 8, "largest reader and writer count")

	publishCmd.Flags().StringVar(&addr, "addr", "localhost:50051", "commit server address")
	publishCmd.Flags().IntVar(&totalReq, "total-requests", 10000, "commits to publish")
	publishCmd.Flags().IntVar(&concurrency, "concurrency", 32, "concurrent publishers")
	publishCmd.Flags().IntVar(&changes, "changes", 10, "value changes per commit")
	publishCmd.Flags().IntVar(&valueSize, "value-bytes", 4*1024, "bytes per value")

	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.AddCommand(vectorCmd, publishCmd)
}

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Fatalf("perf: %v", err)
	}
}
