// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/enveloping/ledger"
)

// Module is logic a proxy delegates to. It runs with the proxy as the
// executing account, so transfers and calls it makes originate from the
// proxy.
type Module interface {
	// Initialize is invoked once, while the proxy is being initialized.
	Initialize(ctx context.Context, env *Env, params []byte) error

	// Fallback receives every call the proxy does not handle itself,
	// including the full calldata of execute once the fee is settled.
	Fallback(ctx context.Context, env *Env, input []byte) ([]byte, error)
}

// Env is the capability set handed to a module.
type Env struct {
	*ledger.Frame

	// State is the proxy's record. Modules can read it but not write it.
	State *State

	// Store is the module's private namespace within the proxy.
	Store database.Database
}

func newEnv(f *ledger.Frame) *Env {
	state := NewState(f.Storage(f.Self()))
	return &Env{
		Frame: f,
		State: state,
		Store: state.ModuleStorage(),
	}
}

func loadModule(f *ledger.Frame, logic common.Address) (Module, error) {
	code, ok := f.Code(logic)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModule, logic)
	}
	m, ok := code.(Module)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModule, logic)
	}
	return m, nil
}

// delegate runs the module at [logic] against the executing proxy.
func delegate(ctx context.Context, f *ledger.Frame, logic common.Address, gas uint64, run func(Module, *Env) ([]byte, error)) *ledger.Result {
	return f.DelegateCall(ctx, gas, func(d *ledger.Frame) ([]byte, error) {
		m, err := loadModule(d, logic)
		if err != nil {
			return nil, ledger.Fail(err)
		}
		return run(m, newEnv(d))
	})
}
