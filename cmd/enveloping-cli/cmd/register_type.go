// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ava-labs/enveloping/client"
	"github.com/ava-labs/enveloping/node"
	"github.com/ava-labs/enveloping/proxy"
)

var registerTypeCmd = &cobra.Command{
	Use:   "register-type [options] <type name> <type suffix>",
	Short: "Registers an extended request type on the proxy",
	Long: `
Registers a request type extending the generic members.

$ enveloping-cli register-type --proxy 0x.. TransferRequest \
    "Transfer transfer)Transfer(string note)"

`,
	RunE: registerTypeFunc,
}

func registerTypeFunc(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected exactly 2 arguments, got %d", len(args))
	}
	p, err := getProxy()
	if err != nil {
		return err
	}
	priv, err := crypto.LoadECDSA(privateKeyFile)
	if err != nil {
		return err
	}

	cli := client.New(uri, requestTimeout)
	r, err := cli.RegisterType(&node.RegisterTypeArgs{
		From:       crypto.PubkeyToAddress(priv.PublicKey),
		Proxy:      p,
		TypeName:   args[0],
		TypeSuffix: args[1],
		Gas:        gas,
	})
	if err != nil {
		return err
	}
	printReceipt(r)
	color.Cyan("TypeHash=%s", proxy.RequestTypeHash(args[0], args[1]))
	return nil
}
