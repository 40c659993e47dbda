// Package config loads settings through viper: defaults, an optional config
// file, DASHLOG_* environment variables and bound command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chn0318/dashlog/sharedlog"
	"github.com/chn0318/dashlog/sharedlog/memorylog"
	"github.com/chn0318/dashlog/sharedlog/scalog"
)

const EnvPrefix = "DASHLOG"

const (
	BackendMemory = "memory"
	BackendScalog = "scalog"
)

func SetDefaults() {
	viper.SetDefault("listen", ":50051")
	viper.SetDefault("metrics-listen", ":9090")
	viper.SetDefault("log-backend", BackendMemory)
	viper.SetDefault("fetch-limit", 128)
	viper.SetDefault("scalog-clients", 4)
	viper.SetDefault("data-replication-factor", 1)
	viper.SetDefault("disc-ip", "127.0.0.1")
	viper.SetDefault("disc-port", 21024)
	viper.SetDefault("data-port", 21025)
}

// Load applies the defaults, binds flags and the environment, and reads
// file when it is not empty.
func Load(file string, flags *pflag.FlagSet) error {
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if flags != nil {
		if err := viper.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}
	if file == "" {
		return nil
	}
	viper.SetConfigFile(file)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", file, err)
	}
	glog.Infof("[config] loaded %s\n", viper.ConfigFileUsed())
	return nil
}

// OpenLog opens the shared log selected by log-backend.
func OpenLog() (sharedlog.SharedLog, error) {
	switch backend := viper.GetString("log-backend"); backend {
	case BackendMemory:
		return memorylog.NewMemoryLog(), nil
	case BackendScalog:
		log, err := scalog.NewScalogSystem()
		if err != nil {
			return nil, err
		}
		return log, nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
