// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "enveloping" runs a devnet node hosting forwarding proxies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/enveloping/cmd/enveloping/version"
	"github.com/ava-labs/enveloping/node"
)

const (
	configFileKey      = "config-file"
	genesisFileKey     = "genesis-file"
	logLevelKey        = "log-level"
	httpHostKey        = "http-host"
	httpPortKey        = "http-port"
	readTimeoutKey     = "read-timeout"
	writeTimeoutKey    = "write-timeout"
	shutdownTimeoutKey = "shutdown-timeout"
	recentReceiptsKey  = "recent-receipts"
	callGasCapKey      = "call-gas-cap"
)

var rootCmd = &cobra.Command{
	Use:        "enveloping",
	Short:      "Enveloping devnet node",
	SuggestFor: []string{"enveloping"},
	RunE:       runFunc,
}

func init() {
	cobra.EnablePrefixMatching = true
}

func init() {
	rootCmd.AddCommand(
		version.NewCommand(),
	)

	var defaults node.Config
	defaults.SetDefaults()

	fs := rootCmd.Flags()
	fs.String(configFileKey, "", "config file (json, yaml or toml)")
	fs.String(genesisFileKey, "", "genesis file; the default genesis is used when empty")
	fs.String(logLevelKey, "info", "log level")
	fs.String(httpHostKey, defaults.HTTPHost, "address to serve JSON-RPC on")
	fs.Uint16(httpPortKey, defaults.HTTPPort, "port to serve JSON-RPC on")
	fs.Duration(readTimeoutKey, defaults.ReadTimeout, "HTTP read timeout")
	fs.Duration(writeTimeoutKey, defaults.WriteTimeout, "HTTP write timeout")
	fs.Duration(shutdownTimeoutKey, defaults.ShutdownTimeout, "time allowed for in-flight requests on shutdown")
	fs.Int(recentReceiptsKey, defaults.RecentReceipts, "number of receipts kept for recentReceipts")
	fs.Uint64(callGasCapKey, defaults.CallGasCap, "gas cap for simulated calls")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "enveloping failed %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// loadViper binds [fs] and the ENVELOPING_* environment, then merges the
// config file if one is set.
func loadViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("enveloping")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if f := v.GetString(configFileKey); len(f) > 0 {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func buildConfig(v *viper.Viper) node.Config {
	return node.Config{
		HTTPHost:        v.GetString(httpHostKey),
		HTTPPort:        uint16(v.GetUint(httpPortKey)),
		ReadTimeout:     v.GetDuration(readTimeoutKey),
		WriteTimeout:    v.GetDuration(writeTimeoutKey),
		ShutdownTimeout: v.GetDuration(shutdownTimeoutKey),
		RecentReceipts:  v.GetInt(recentReceiptsKey),
		CallGasCap:      v.GetUint64(callGasCapKey),
	}
}

func loadGenesis(path string) (*node.Genesis, error) {
	if len(path) == 0 {
		return node.DefaultGenesis(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return node.LoadGenesis(b)
}

func runFunc(cmd *cobra.Command, args []string) error {
	v, err := loadViper(cmd.Flags())
	if err != nil {
		return err
	}
	lvl, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.LogfmtFormat())))

	genesis, err := loadGenesis(v.GetString(genesisFileKey))
	if err != nil {
		return err
	}
	config := buildConfig(v)
	n, err := node.New(config, genesis)
	if err != nil {
		return err
	}
	defer n.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return n.Serve(ctx, config.Address())
}
