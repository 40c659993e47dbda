package main

import (
	"flag"
	"net"
	"net/http"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"github.com/chn0318/dashlog/commitserver"
	"github.com/chn0318/dashlog/config"
	"github.com/chn0318/dashlog/proto/commitpb"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dashlog-server",
	Short: "Publish graph commits through a shared log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(cfgFile, cmd.Flags()); err != nil {
			return err
		}
		return serve()
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.Flags().String("listen", ":50051", "gRPC listen address")
	rootCmd.Flags().String("metrics-listen", ":9090", "metrics listen address, empty to disable")
	rootCmd.Flags().String("log-backend", config.BackendMemory, "shared log backend: memory or scalog")
	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)
}

func serve() error {
	sharedLog, err := config.OpenLog()
	if err != nil {
		return err
	}
	srv, err := commitserver.NewServer(sharedLog)
	if err != nil {
		return err
	}

	if addr := viper.GetString("metrics-listen"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			glog.Infof("metrics on %s\n", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				glog.Errorf("metrics server: %v\n", err)
			}
		}()
	}

	addr := viper.GetString("listen")
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	grpcServer := grpc.NewServer()
	commitpb.RegisterCommitServer(grpcServer, srv)

	glog.Infof("commit server on %s, backend %s\n", addr, viper.GetString("log-backend"))
	return grpcServer.Serve(lis)
}

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Fatalf("server: %v", err)
	}
}
