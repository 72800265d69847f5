// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/token"
)

// Status reports how far an executed request got.
type Status uint8

const (
	StatusFeeFailed Status = iota
	StatusCallFailed
	StatusCallSucceeded
)

func (s Status) String() string {
	switch s {
	case StatusFeeFailed:
		return "fee failed"
	case StatusCallFailed:
		return "call failed"
	case StatusCallSucceeded:
		return "call succeeded"
	default:
		return "unknown"
	}
}

// execute settles the relay fee and performs the action authorized by [e].
// [input] is the calldata execute was invoked with; an installed module
// receives it verbatim.
func (p *Proxy) execute(ctx context.Context, f *ledger.Frame, state *State, e *Envelope, input []byte) (*ExecuteResult, error) {
	if err := p.verify(f, state, e); err != nil {
		return nil, err
	}
	req := e.Request
	if err := state.incrementNonce(req.From); err != nil {
		return nil, err
	}

	transfer, err := token.PackTransfer(req.TokenRecipient, safeBig(req.TokenAmount))
	if err != nil {
		return nil, err
	}
	fee := f.Call(ctx, req.TokenContract, nil, gasLimit(req.TokenGas), transfer)
	if !token.TransferSucceeded(fee) {
		log.Debug("fee transfer failed", "proxy", f.Self(), "token", req.TokenContract, "err", fee.Err)
		return &ExecuteResult{ReturnData: fee.ReturnData, Status: StatusFeeFailed}, nil
	}

	// The nonce is bumped a second time once the fee is paid.
	if err := state.incrementNonce(req.From); err != nil {
		return nil, err
	}

	logic, err := state.Logic()
	if err != nil {
		return nil, err
	}
	var res *ledger.Result
	if logic == (common.Address{}) {
		res = call(ctx, f, req)
	} else {
		res = delegate(ctx, f, logic, f.GasLeft(), func(m Module, env *Env) ([]byte, error) {
			return m.Fallback(ctx, env, input)
		})
	}

	if err := sweep(f, req.From); err != nil {
		return nil, err
	}
	status := StatusCallFailed
	if res.Success {
		status = StatusCallSucceeded
	}
	return &ExecuteResult{Success: res.Success, ReturnData: res.ReturnData, Status: status}, nil
}

// call performs the request's action, appending the signer to the calldata
// so the destination can recover who authorized it.
func call(ctx context.Context, f *ledger.Frame, req *ForwardRequest) *ledger.Result {
	value, ok := req.CallValue()
	if !ok {
		return &ledger.Result{Err: ErrValueOverflow}
	}
	return f.Call(ctx, req.To, value, req.CallGas(), req.CallData())
}

// sweep moves any native balance left on the proxy to [to].
func sweep(f *ledger.Frame, to common.Address) error {
	bal, err := f.Balance(f.Self())
	if err != nil {
		return err
	}
	if bal.IsZero() {
		return nil
	}
	return f.Transfer(f.Self(), to, bal)
}
