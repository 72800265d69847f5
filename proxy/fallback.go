// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/enveloping/ledger"
)

// fallback hands unrecognized calls to the installed module. Without a
// module only plain value transfers are accepted.
func (p *Proxy) fallback(ctx context.Context, f *ledger.Frame, state *State, input []byte) ([]byte, error) {
	logic, err := state.Logic()
	if err != nil {
		return nil, err
	}
	if logic == (common.Address{}) {
		if len(input) == 0 {
			return nil, nil
		}
		return nil, ledger.Fail(ErrNoLogicModule)
	}
	res := delegate(ctx, f, logic, f.GasLeft(), func(m Module, env *Env) ([]byte, error) {
		return m.Fallback(ctx, env, input)
	})
	if !res.Success {
		return nil, res.Revert()
	}
	return res.ReturnData, nil
}

// directExecute lets the owner act through the proxy without a signed
// request. Residual balance goes back to the owner.
func (p *Proxy) directExecute(
	ctx context.Context,
	f *ledger.Frame,
	state *State,
	to common.Address,
	data []byte,
	input []byte,
) (bool, []byte, error) {
	owner, err := state.Owner()
	if err != nil {
		return false, nil, err
	}
	if owner == (common.Address{}) || f.Caller() != owner {
		return false, nil, fmt.Errorf("%w: %s", ErrNotOwner, f.Caller())
	}
	logic, err := state.Logic()
	if err != nil {
		return false, nil, err
	}

	var res *ledger.Result
	if logic == (common.Address{}) {
		res = f.Call(ctx, to, f.Value(), f.GasLeft(), data)
	} else {
		res = delegate(ctx, f, logic, f.GasLeft(), func(m Module, env *Env) ([]byte, error) {
			return m.Fallback(ctx, env, input)
		})
	}
	if err := sweep(f, owner); err != nil {
		return false, nil, err
	}
	return res.Success, res.ReturnData, nil
}
