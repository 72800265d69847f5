// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/token"
)

// initialize performs one-shot setup. Once an owner is stored every later
// call succeeds without effect.
func (p *Proxy) initialize(
	ctx context.Context,
	f *ledger.Frame,
	state *State,
	owner common.Address,
	logic common.Address,
	feeToken common.Address,
	feeTransferData []byte,
	logicInitParams []byte,
) error {
	current, err := state.Owner()
	if err != nil {
		return err
	}
	if current != (common.Address{}) {
		return nil
	}
	if owner == (common.Address{}) {
		return ErrZeroOwner
	}

	fee := f.Call(ctx, feeToken, nil, f.GasLeft(), feeTransferData)
	if !token.TransferSucceeded(fee) {
		return fmt.Errorf("%w: %s", ErrDeploymentFee, failure(fee))
	}

	if logic != (common.Address{}) {
		res := delegate(ctx, f, logic, f.GasLeft(), func(m Module, env *Env) ([]byte, error) {
			return nil, m.Initialize(ctx, env, logicInitParams)
		})
		if !res.Success {
			return fmt.Errorf("%w: %s", ErrModuleInitialization, failure(res))
		}
		if err := state.setLogic(logic); err != nil {
			return err
		}
	}

	if err := state.setOwner(owner); err != nil {
		return err
	}
	log.Debug("proxy initialized", "proxy", f.Self(), "owner", owner, "logic", logic)
	return nil
}

func failure(res *ledger.Result) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return "call returned false"
}
