// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/ava-labs/enveloping/client"
	"github.com/ava-labs/enveloping/modules/allowlist"
	"github.com/ava-labs/enveloping/node"
	"github.com/ava-labs/enveloping/token"
)

var (
	logicAddress string
	feeToken     string
	feeRecipient string
	feeAmount    string
	allowed      []string
)

var initializeCmd = &cobra.Command{
	Use:   "initialize [options] <owner>",
	Short: "Initializes a proxy for its owner, paying the deployment fee",
	Long: `
Initializes a proxy. The proxy pays --fee-amount of --fee-token to
--fee-recipient. With --logic the module is installed and receives the
--allow list as its init params.

$ enveloping-cli initialize --proxy 0x.. --fee-token 0x.. \
    --fee-recipient 0x.. --fee-amount 100 0xowner

`,
	RunE: initializeFunc,
}

func init() {
	initializeCmd.Flags().StringVar(&logicAddress, "logic", "", "logic module address")
	initializeCmd.Flags().StringVar(&feeToken, "fee-token", "", "token the deployment fee is paid in")
	initializeCmd.Flags().StringVar(&feeRecipient, "fee-recipient", "", "deployment fee recipient")
	initializeCmd.Flags().StringVar(&feeAmount, "fee-amount", "0", "deployment fee")
	initializeCmd.Flags().StringSliceVar(&allowed, "allow", nil, "destinations allowed by the allowlist module")
}

func initializeFunc(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly 1 argument, got %d", len(args))
	}
	owner, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	p, err := getProxy()
	if err != nil {
		return err
	}
	priv, err := crypto.LoadECDSA(privateKeyFile)
	if err != nil {
		return err
	}

	initArgs := &node.InitializeArgs{
		From:  crypto.PubkeyToAddress(priv.PublicKey),
		Proxy: p,
		Owner: owner,
		Gas:   gas,
	}
	if len(logicAddress) > 0 {
		if initArgs.Logic, err = parseAddress(logicAddress); err != nil {
			return err
		}
	}
	if len(feeToken) > 0 {
		if initArgs.FeeToken, err = parseAddress(feeToken); err != nil {
			return err
		}
		to, err := parseAddress(feeRecipient)
		if err != nil {
			return err
		}
		amount, err := parseAmount(feeAmount)
		if err != nil {
			return err
		}
		if initArgs.FeeTransferData, err = token.PackTransfer(to, amount); err != nil {
			return err
		}
	}
	if len(allowed) > 0 {
		dests := make([]common.Address, len(allowed))
		for i, a := range allowed {
			if dests[i], err = parseAddress(a); err != nil {
				return err
			}
		}
		if initArgs.LogicInitParams, err = allowlist.PackInitParams(dests); err != nil {
			return err
		}
	}

	cli := client.New(uri, requestTimeout)
	r, err := cli.Initialize(initArgs)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}
