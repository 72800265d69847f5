// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"

	"github.com/ava-labs/enveloping/node"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrMissingProxy   = errors.New("--proxy is required")
)

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

func getProxy() (common.Address, error) {
	if len(proxyAddress) == 0 {
		return common.Address{}, ErrMissingProxy
	}
	return parseAddress(proxyAddress)
}

// getRelay is the --relay address, or the key's own address.
func getRelay(priv *ecdsa.PrivateKey) (common.Address, error) {
	if len(relayAddress) == 0 {
		return crypto.PubkeyToAddress(priv.PublicKey), nil
	}
	return parseAddress(relayAddress)
}

func printReceipt(r *node.Receipt) {
	if r.Success {
		color.Green("%s %s: success (gas used=%d)", r.Method, r.ID, r.GasUsed)
	} else {
		color.Red("%s %s: reverted %s (gas used=%d)", r.Method, r.ID, r.Error, r.GasUsed)
	}
	for _, l := range r.Logs {
		color.Cyan("  log %s topics=%v", l.Address, l.Topics)
	}
}
