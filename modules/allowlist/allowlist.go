// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package allowlist is a logic module that restricts the destinations a
// proxy forwards requests to.
package allowlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/proxy"
)

const Kind = "allowlist"

const abiJSON = `[
	{"type":"function","name":"isAllowed","stateMutability":"view",
	 "inputs":[{"name":"to","type":"address"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allow","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"}],
	 "outputs":[]}
]`

var (
	ErrNotAllowed     = errors.New("destination not allowed")
	ErrDirectCall     = errors.New("module cannot be called directly")
	ErrUnknownCall    = errors.New("unknown call")
	ErrMalformedInput = errors.New("malformed input")
)

var (
	moduleABI  abi.ABI
	paramsArgs = abi.Arguments{{Type: ledger.MustNewType("address[]")}}

	allowed = []byte{0x1}
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
	moduleABI = parsed
}

var (
	_ ledger.Contract = &Allowlist{}
	_ proxy.Module    = &Allowlist{}
)

type Allowlist struct{}

func New() *Allowlist { return &Allowlist{} }

// Run rejects calls made to the module's own address.
func (a *Allowlist) Run(context.Context, *ledger.Frame, []byte) ([]byte, error) {
	return nil, ledger.Fail(ErrDirectCall)
}

// PackInitParams encodes the initial destinations for Initialize.
func PackInitParams(destinations []common.Address) ([]byte, error) {
	return paramsArgs.Pack(destinations)
}

func (a *Allowlist) Initialize(_ context.Context, env *proxy.Env, params []byte) error {
	if len(params) == 0 {
		return nil
	}
	out, err := paramsArgs.Unpack(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	for _, dest := range out[0].([]common.Address) {
		if err := env.Store.Put(dest[:], allowed); err != nil {
			return err
		}
	}
	return nil
}

func (a *Allowlist) Fallback(ctx context.Context, env *proxy.Env, input []byte) ([]byte, error) {
	if e, ok := proxy.DecodeExecute(input); ok {
		return a.forwardRequest(ctx, env, e.Request)
	}
	if len(input) == 0 {
		return nil, nil
	}
	if len(input) < 4 {
		return nil, ledger.Fail(ErrUnknownCall)
	}
	if m, err := proxy.ABI.MethodById(input[:4]); err == nil && m.Name == "directExecute" {
		args, err := m.Inputs.Unpack(input[4:])
		if err != nil {
			return nil, ledger.Fail(ErrMalformedInput)
		}
		return a.forward(ctx, env, args[0].(common.Address), env.Value(), env.GasLeft(), args[1].([]byte))
	}

	m, err := moduleABI.MethodById(input[:4])
	if err != nil {
		return nil, ledger.Fail(ErrUnknownCall)
	}
	args, err := m.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, ledger.Fail(ErrMalformedInput)
	}
	dest := args[0].(common.Address)
	switch m.Name {
	case "isAllowed":
		ok, err := IsAllowed(env.Store, dest)
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(ok)
	default:
		owner, err := env.State.Owner()
		if err != nil {
			return nil, err
		}
		if env.Caller() != owner {
			return nil, ledger.Fail(fmt.Errorf("%w: %s", proxy.ErrNotOwner, env.Caller()))
		}
		log.Debug("destination allowed", "proxy", env.Self(), "to", dest)
		return nil, env.Store.Put(dest[:], allowed)
	}
}

func (a *Allowlist) forwardRequest(ctx context.Context, env *proxy.Env, req *proxy.ForwardRequest) ([]byte, error) {
	value, ok := req.CallValue()
	if !ok {
		return nil, ledger.Fail(proxy.ErrValueOverflow)
	}
	return a.forward(ctx, env, req.To, value, req.CallGas(), req.CallData())
}

func (a *Allowlist) forward(
	ctx context.Context,
	env *proxy.Env,
	to common.Address,
	value *uint256.Int,
	gas uint64,
	data []byte,
) ([]byte, error) {
	ok, err := IsAllowed(env.Store, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ledger.Fail(fmt.Errorf("%w: %s", ErrNotAllowed, to))
	}
	res := env.Call(ctx, to, value, gas, data)
	if !res.Success {
		return nil, res.Revert()
	}
	return res.ReturnData, nil
}

func IsAllowed(db database.KeyValueReader, to common.Address) (bool, error) {
	return db.Has(to[:])
}

func PackIsAllowed(to common.Address) ([]byte, error) {
	return moduleABI.Pack("isAllowed", to)
}

func UnpackIsAllowed(ret []byte) (bool, error) {
	out, err := moduleABI.Unpack("isAllowed", ret)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func PackAllow(to common.Address) ([]byte, error) {
	return moduleABI.Pack("allow", to)
}
