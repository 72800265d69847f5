// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the execution environment proxies, tokens and
// logic modules run in: native balances, per-account storage namespaces and
// nested call frames that commit or roll back as a unit.
package ledger

import (
	"context"
	"math"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Contract is code deployed at an address.
type Contract interface {
	Run(ctx context.Context, f *Frame, input []byte) ([]byte, error)
}

// Message is an externally originated call.
type Message struct {
	From  common.Address
	To    common.Address
	Value *uint256.Int
	Gas   uint64
	Data  []byte
}

// Result is the outcome of a single call. A failed call never returns an
// error to its caller; the caller inspects Success and branches.
type Result struct {
	Success    bool
	ReturnData []byte
	GasUsed    uint64
	Err        error
	Logs       []*types.Log
}

type Ledger struct {
	db        database.Database
	contracts map[common.Address]Contract
}

func New(db database.Database) *Ledger {
	return &Ledger{
		db:        db,
		contracts: make(map[common.Address]Contract),
	}
}

// Deploy installs code at addr, replacing any previous code.
func (l *Ledger) Deploy(addr common.Address, c Contract) {
	l.contracts[addr] = c
}

func (l *Ledger) Code(addr common.Address) (Contract, bool) {
	c, ok := l.contracts[addr]
	return c, ok
}

func (l *Ledger) Balance(addr common.Address) (*uint256.Int, error) {
	return GetBalance(l.db, addr)
}

func (l *Ledger) root(from common.Address, gas uint64) *Frame {
	return &Frame{
		ledger: l,
		db:     versiondb.New(l.db),
		self:   from,
		value:  new(uint256.Int),
		gas:    newGasMeter(gas),
	}
}

// Apply executes msg and persists its effects only if the call succeeds.
func (l *Ledger) Apply(ctx context.Context, msg *Message) (*Result, error) {
	root := l.root(msg.From, msg.Gas)
	res := root.Call(ctx, msg.To, msg.Value, msg.Gas, msg.Data)
	if !res.Success {
		root.db.Abort()
		return res, nil
	}
	res.Logs = root.logs
	if err := root.db.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// Simulate executes msg and discards every effect.
func (l *Ledger) Simulate(ctx context.Context, msg *Message) *Result {
	root := l.root(msg.From, msg.Gas)
	defer root.db.Abort()

	res := root.Call(ctx, msg.To, msg.Value, msg.Gas, msg.Data)
	if res.Success {
		res.Logs = root.logs
	}
	return res
}

// Update runs fn against an unmetered frame owned by the zero address and
// persists its writes if fn succeeds. Used to load genesis state.
func (l *Ledger) Update(fn func(f *Frame) error) error {
	root := l.root(common.Address{}, math.MaxUint64)
	if err := fn(root); err != nil {
		root.db.Abort()
		return err
	}
	return root.db.Commit()
}
