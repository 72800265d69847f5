// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "enveloping-cli" implements enveloping client operation interface.
package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

var (
	privateKeyFile string
	uri            string
	proxyAddress   string
	relayAddress   string
	gas            uint64

	rootCmd = &cobra.Command{
		Use:        "enveloping-cli",
		Short:      "Enveloping CLI",
		SuggestFor: []string{"enveloping-cli", "envelopingcli", "envelopingctl"},
	}
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.AddCommand(
		createCmd,
		nonceCmd,
		registerTypeCmd,
		initializeCmd,
		executeCmd,
		balanceCmd,
		receiptCmd,
	)

	rootCmd.PersistentFlags().StringVar(
		&privateKeyFile,
		"private-key-file",
		".enveloping-cli-pk",
		"private key file path",
	)
	rootCmd.PersistentFlags().StringVar(
		&uri,
		"endpoint",
		"http://127.0.0.1:9650",
		"RPC Endpoint for the node",
	)
	rootCmd.PersistentFlags().StringVar(
		&proxyAddress,
		"proxy",
		"",
		"proxy address",
	)
	rootCmd.PersistentFlags().StringVar(
		&relayAddress,
		"relay",
		"",
		"relay address submitting calls; defaults to the key's address",
	)
	rootCmd.PersistentFlags().Uint64Var(
		&gas,
		"gas",
		0,
		"gas for submitted calls; zero uses the node limit",
	)
}

func Execute() error {
	return rootCmd.Execute()
}
