// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	log "github.com/inconshreveable/log15"
)

// Frame is the state view of one executing call. Writes land in a version
// layer over the parent frame and only reach it when the call succeeds.
type Frame struct {
	ledger *Ledger
	db     *versiondb.Database

	self   common.Address
	caller common.Address
	value  *uint256.Int
	gas    *gasMeter
	depth  int

	logs []*types.Log
}

// Self is the account whose code and storage the frame executes against.
func (f *Frame) Self() common.Address { return f.self }

func (f *Frame) Caller() common.Address { return f.caller }

func (f *Frame) Value() *uint256.Int { return new(uint256.Int).Set(f.value) }

func (f *Frame) Depth() int { return f.depth }

func (f *Frame) GasLeft() uint64 { return f.gas.left() }

func (f *Frame) GasUsed() uint64 { return f.gas.used }

func (f *Frame) UseGas(n uint64) error { return f.gas.consume(n) }

func (f *Frame) Code(addr common.Address) (Contract, bool) {
	return f.ledger.Code(addr)
}

// Storage returns the namespace owned by addr.
func (f *Frame) Storage(addr common.Address) database.Database {
	return prefixdb.New(StorageKey(addr), f.db)
}

func (f *Frame) Balance(addr common.Address) (*uint256.Int, error) {
	return GetBalance(f.db, addr)
}

func (f *Frame) Transfer(from common.Address, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	fromBal, err := GetBalance(f.db, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, fromBal.ToBig(), amount.ToBig())
	}
	if from == to {
		return nil
	}
	toBal, err := GetBalance(f.db, to)
	if err != nil {
		return err
	}
	sum := new(uint256.Int).Add(toBal, amount)
	if sum.Lt(toBal) {
		return ErrBalanceOverflow
	}
	fromBal.Sub(fromBal, amount)
	if err := PutBalance(f.db, from, fromBal); err != nil {
		return err
	}
	return PutBalance(f.db, to, sum)
}

// Mint credits [amount] to [addr] without debiting anyone. Only genesis
// allocation uses it.
func (f *Frame) Mint(addr common.Address, amount *uint256.Int) error {
	bal, err := GetBalance(f.db, addr)
	if err != nil {
		return err
	}
	sum := new(uint256.Int).Add(bal, amount)
	if sum.Lt(bal) {
		return ErrBalanceOverflow
	}
	return PutBalance(f.db, addr, sum)
}

// Emit records a log for the executing account.
func (f *Frame) Emit(topics []common.Hash, data []byte) {
	f.logs = append(f.logs, &types.Log{
		Address: f.self,
		Topics:  topics,
		Data:    common.CopyBytes(data),
	})
}

// Call transfers value from the executing account to [to] and runs the code
// deployed there, if any, with at most [gas].
func (f *Frame) Call(ctx context.Context, to common.Address, value *uint256.Int, gas uint64, input []byte) *Result {
	if value == nil {
		value = new(uint256.Int)
	}
	var run func(*Frame) ([]byte, error)
	if code, ok := f.ledger.Code(to); ok {
		run = func(c *Frame) ([]byte, error) { return code.Run(ctx, c, input) }
	}
	return f.enter(ctx, to, f.self, value, gas, true, run)
}

// DelegateCall runs [run] in a child frame that keeps the executing account,
// caller and value, so foreign code operates on this account's state.
func (f *Frame) DelegateCall(ctx context.Context, gas uint64, run func(*Frame) ([]byte, error)) *Result {
	return f.enter(ctx, f.self, f.caller, f.value, gas, false, run)
}

func (f *Frame) enter(
	ctx context.Context,
	self common.Address,
	caller common.Address,
	value *uint256.Int,
	gas uint64,
	transfer bool,
	run func(*Frame) ([]byte, error),
) *Result {
	if left := f.gas.left(); gas > left {
		gas = left
	}
	child := &Frame{
		ledger: f.ledger,
		db:     versiondb.New(f.db),
		self:   self,
		caller: caller,
		value:  value,
		gas:    newGasMeter(gas),
		depth:  f.depth + 1,
	}
	ret, err := child.exec(ctx, transfer, run)
	used := child.gas.used
	// Child budgets never exceed what is left here.
	_ = f.gas.consume(used)
	if err != nil {
		child.db.Abort()
		log.Debug("call failed", "self", self, "caller", caller, "depth", child.depth, "err", err)
		return &Result{ReturnData: revertData(err), GasUsed: used, Err: err}
	}
	if err := child.db.Commit(); err != nil {
		return &Result{GasUsed: used, Err: err}
	}
	f.logs = append(f.logs, child.logs...)
	return &Result{Success: true, ReturnData: ret, GasUsed: used}
}

func (f *Frame) exec(ctx context.Context, transfer bool, run func(*Frame) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.depth > MaxCallDepth {
		return nil, ErrCallDepth
	}
	if err := f.UseGas(CallGas); err != nil {
		return nil, err
	}
	if transfer {
		if err := f.Transfer(f.caller, f.self, f.value); err != nil {
			return nil, err
		}
	}
	if run == nil {
		return nil, nil
	}
	return run(f)
}
