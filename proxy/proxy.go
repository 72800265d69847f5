// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proxy implements the forwarding proxy: a wallet that executes
// requests signed off-chain by its owner, pays the submitting relay in a
// fee token and delegates everything else to an optional logic module.
package proxy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/enveloping/ledger"
)

const signerCacheSize = 1024

var _ ledger.Contract = &Proxy{}

// Proxy is the code deployed at every proxy address. All per-proxy data is
// kept in the storage of the executing account.
type Proxy struct {
	signers cache.Cacher
}

func New() *Proxy {
	return &Proxy{signers: &cache.LRU{Size: signerCacheSize}}
}

// Deploy installs [p] at [addr] and registers the base request type.
func Deploy(l *ledger.Ledger, addr common.Address, p *Proxy) error {
	l.Deploy(addr, p)
	return l.Update(func(f *ledger.Frame) error {
		_, err := registerType(f, NewState(f.Storage(addr)), BaseRequestType)
		return err
	})
}

func (p *Proxy) Run(ctx context.Context, f *ledger.Frame, input []byte) ([]byte, error) {
	state := NewState(f.Storage(f.Self()))
	if len(input) >= 4 {
		if m, err := ABI.MethodById(input[:4]); err == nil {
			return p.dispatch(ctx, f, state, m, input)
		}
	}
	return p.fallback(ctx, f, state, input)
}

func (p *Proxy) dispatch(ctx context.Context, f *ledger.Frame, state *State, m *abi.Method, input []byte) ([]byte, error) {
	if m.StateMutability != "payable" && !f.Value().IsZero() {
		return nil, ledger.Fail(fmt.Errorf("%w: %s", ErrNotPayable, m.Name))
	}
	args, err := m.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, ledger.Fail(fmt.Errorf("%w: %v", ErrMalformedCall, err))
	}

	switch m.Name {
	case "execute":
		e, err := envelopeFromArgs(args)
		if err != nil {
			return nil, ledger.Fail(err)
		}
		res, err := p.execute(ctx, f, state, e, input)
		if err != nil {
			return nil, ledger.Fail(err)
		}
		return m.Outputs.Pack(res.Success, nonNil(res.ReturnData), uint8(res.Status))
	case "verify":
		e, err := envelopeFromArgs(args)
		if err != nil {
			return nil, ledger.Fail(err)
		}
		if err := p.verify(f, state, e); err != nil {
			return nil, ledger.Fail(err)
		}
		return nil, nil
	case "getNonce":
		n, err := state.Nonce(args[0].(common.Address))
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(new(big.Int).SetUint64(n))
	case "registerRequestType":
		if err := RegisterRequestType(f, state, args[0].(string), args[1].(string)); err != nil {
			return nil, ledger.Fail(err)
		}
		return nil, nil
	case "isRegisteredType":
		ok, err := state.IsRegistered(common.Hash(args[0].([32]byte)))
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(ok)
	case "initialize":
		if err := p.initialize(
			ctx,
			f,
			state,
			args[0].(common.Address),
			args[1].(common.Address),
			args[2].(common.Address),
			args[3].([]byte),
			args[4].([]byte),
		); err != nil {
			return nil, ledger.Fail(err)
		}
		return nil, nil
	case "owner":
		owner, err := state.Owner()
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(owner)
	case "logic":
		logic, err := state.Logic()
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(logic)
	case "directExecute":
		success, ret, err := p.directExecute(ctx, f, state, args[0].(common.Address), args[1].([]byte), input)
		if err != nil {
			return nil, ledger.Fail(err)
		}
		return m.Outputs.Pack(success, nonNil(ret))
	default:
		return nil, ledger.Fail(fmt.Errorf("%w: %s", ErrMalformedCall, m.Name))
	}
}
