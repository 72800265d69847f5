// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ava-labs/enveloping/client"
)

var tokenAddress string

var balanceCmd = &cobra.Command{
	Use:   "balance [options] [address]",
	Short: "Prints the native or token balance of an address (default: the key's address)",
	RunE:  balanceFunc,
}

func init() {
	balanceCmd.Flags().StringVar(&tokenAddress, "token", "", "token to query instead of the native balance")
}

func balanceFunc(cmd *cobra.Command, args []string) error {
	var (
		addr common.Address
		err  error
	)
	if len(args) > 0 {
		if addr, err = parseAddress(args[0]); err != nil {
			return err
		}
	} else {
		priv, err := crypto.LoadECDSA(privateKeyFile)
		if err != nil {
			return err
		}
		addr = crypto.PubkeyToAddress(priv.PublicKey)
	}

	cli := client.New(uri, requestTimeout)
	var bal *big.Int
	if len(tokenAddress) > 0 {
		tkn, err := parseAddress(tokenAddress)
		if err != nil {
			return err
		}
		if bal, err = cli.TokenBalance(tkn, addr); err != nil {
			return err
		}
		color.Cyan("Address=%s Token=%s Balance=%s", addr, tkn, bal)
		return nil
	}
	if bal, err = cli.Balance(addr); err != nil {
		return err
	}
	color.Cyan("Address=%s Balance=%s", addr, bal)
	return nil
}
