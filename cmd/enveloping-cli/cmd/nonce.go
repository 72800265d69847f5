// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ava-labs/enveloping/client"
)

var nonceCmd = &cobra.Command{
	Use:   "nonce [options] [signer]",
	Short: "Prints the proxy nonce of a signer (default: the key's address)",
	RunE:  nonceFunc,
}

func nonceFunc(cmd *cobra.Command, args []string) error {
	p, err := getProxy()
	if err != nil {
		return err
	}
	var signer common.Address
	if len(args) > 0 {
		if signer, err = parseAddress(args[0]); err != nil {
			return err
		}
	} else {
		priv, err := crypto.LoadECDSA(privateKeyFile)
		if err != nil {
			return err
		}
		signer = crypto.PubkeyToAddress(priv.PublicKey)
	}

	cli := client.New(uri, requestTimeout)
	nonce, err := cli.Nonce(p, signer)
	if err != nil {
		return err
	}
	color.Cyan("Proxy=%s Signer=%s Nonce=%d", p, signer, nonce)
	return nil
}
