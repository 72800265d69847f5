// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/ava-labs/enveloping/client"
	"github.com/ava-labs/enveloping/proxy"
)

var (
	value       string
	callGas     uint64
	tokenAmount string
	tokenGas    uint64
	verifyFirst bool
)

var executeCmd = &cobra.Command{
	Use:   "execute [options] <to> [data]",
	Short: "Signs a request with the key and relays it through the proxy",
	Long: `
Signs a forward request and submits it as the relay. The relay is paid
--fee-amount of --fee-token out of the proxy's balance.

$ enveloping-cli execute --proxy 0x.. --fee-token 0x.. --fee-amount 10 \
    0xdestination 0xcafe

`,
	RunE: executeFunc,
}

func init() {
	executeCmd.Flags().StringVar(&value, "value", "0", "native value forwarded with the call")
	executeCmd.Flags().Uint64Var(&callGas, "call-gas", 100_000, "gas for the forwarded call")
	executeCmd.Flags().StringVar(&feeToken, "fee-token", "", "token the relay is paid in")
	executeCmd.Flags().StringVar(&feeRecipient, "fee-recipient", "", "relay fee recipient; defaults to the relay")
	executeCmd.Flags().StringVar(&tokenAmount, "fee-amount", "0", "relay fee")
	executeCmd.Flags().Uint64Var(&tokenGas, "token-gas", 50_000, "gas for the fee transfer")
	executeCmd.Flags().BoolVar(&verifyFirst, "verify", true, "verify the envelope before submitting")
}

func executeFunc(cmd *cobra.Command, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("expected 1 or 2 arguments, got %d", len(args))
	}
	to, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	var data []byte
	if len(args) == 2 {
		if data, err = hexutil.Decode(args[1]); err != nil {
			return err
		}
	}
	p, err := getProxy()
	if err != nil {
		return err
	}
	priv, err := crypto.LoadECDSA(privateKeyFile)
	if err != nil {
		return err
	}
	relay, err := getRelay(priv)
	if err != nil {
		return err
	}

	req := &proxy.ForwardRequest{
		From:           crypto.PubkeyToAddress(priv.PublicKey),
		To:             to,
		Gas:            new(big.Int).SetUint64(callGas),
		Data:           data,
		TokenRecipient: relay,
		TokenGas:       new(big.Int).SetUint64(tokenGas),
	}
	if req.Value, err = parseAmount(value); err != nil {
		return err
	}
	if req.TokenAmount, err = parseAmount(tokenAmount); err != nil {
		return err
	}
	if len(feeToken) > 0 {
		if req.TokenContract, err = parseAddress(feeToken); err != nil {
			return err
		}
	}
	if len(feeRecipient) > 0 {
		if req.TokenRecipient, err = parseAddress(feeRecipient); err != nil {
			return err
		}
	}

	opts := []client.OpOption{client.WithGas(gas)}
	if verifyFirst {
		opts = append(opts, client.WithVerify())
	}
	cli := client.New(uri, requestTimeout)
	r, _, err := client.SignExecute(context.Background(), cli, relay, p, req, priv, opts...)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}
