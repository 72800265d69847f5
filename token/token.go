// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements the fungible fee token relays are paid in.
package token

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/enveloping/ledger"
)

const (
	TransferGas  uint64 = 5_000
	BalanceOfGas uint64 = 400
)

const abiJSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"holder","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"symbol","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"event","name":"Transfer","anonymous":false,
	 "inputs":[{"name":"from","type":"address","indexed":true},
	           {"name":"to","type":"address","indexed":true},
	           {"name":"value","type":"uint256","indexed":false}]}
]`

var (
	ErrInsufficientBalance = errors.New("transfer amount exceeds balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

var tokenABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
	tokenABI = parsed
}

var _ ledger.Contract = &Token{}

// Token keeps no state of its own; balances live in the storage namespace
// of the address it is deployed at.
type Token struct {
	Symbol string
}

func New(symbol string) *Token {
	return &Token{Symbol: symbol}
}

func (t *Token) Run(_ context.Context, f *ledger.Frame, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, ledger.Revert("token: missing selector")
	}
	m, err := tokenABI.MethodById(input[:4])
	if err != nil {
		return nil, ledger.Revert("token: unknown selector")
	}
	args, err := m.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, ledger.Revert("token: malformed input")
	}
	store := f.Storage(f.Self())
	switch m.Name {
	case "transfer":
		if err := f.UseGas(TransferGas); err != nil {
			return nil, err
		}
		to := args[0].(common.Address)
		amount, overflow := uint256.FromBig(args[1].(*big.Int))
		if overflow {
			return nil, ledger.Revert("token: " + ErrInvalidAmount.Error())
		}
		if err := move(store, f.Caller(), to, amount); err != nil {
			return nil, ledger.Revert("token: " + err.Error())
		}
		emitTransfer(f, f.Caller(), to, amount)
		return m.Outputs.Pack(true)
	case "balanceOf":
		if err := f.UseGas(BalanceOfGas); err != nil {
			return nil, err
		}
		bal, err := BalanceOf(store, args[0].(common.Address))
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(bal.ToBig())
	default:
		return m.Outputs.Pack(t.Symbol)
	}
}

// Mint credits [amount] to [to] on the token deployed at [token].
func Mint(f *ledger.Frame, token common.Address, to common.Address, amount *uint256.Int) error {
	store := f.Storage(token)
	bal, err := BalanceOf(store, to)
	if err != nil {
		return err
	}
	sum := new(uint256.Int).Add(bal, amount)
	if sum.Lt(bal) {
		return ErrInvalidAmount
	}
	return putBalance(store, to, sum)
}

func BalanceOf(db database.KeyValueReader, holder common.Address) (*uint256.Int, error) {
	v, err := db.Get(holder[:])
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(v), nil
}

func putBalance(db database.KeyValueWriter, holder common.Address, bal *uint256.Int) error {
	b := bal.Bytes32()
	return db.Put(holder[:], b[:])
}

func move(db database.Database, from common.Address, to common.Address, amount *uint256.Int) error {
	fromBal, err := BalanceOf(db, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBal, err := BalanceOf(db, to)
	if err != nil {
		return err
	}
	if err := putBalance(db, from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return putBalance(db, to, toBal.Add(toBal, amount))
}

func emitTransfer(f *ledger.Frame, from common.Address, to common.Address, amount *uint256.Int) {
	ev := tokenABI.Events["Transfer"]
	data, err := ev.Inputs.NonIndexed().Pack(amount.ToBig())
	if err != nil {
		return
	}
	f.Emit([]common.Hash{ev.ID, common.BytesToHash(from[:]), common.BytesToHash(to[:])}, data)
}

func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return tokenABI.Pack("transfer", to, amount)
}

func PackBalanceOf(holder common.Address) ([]byte, error) {
	return tokenABI.Pack("balanceOf", holder)
}

func UnpackBalanceOf(ret []byte) (*big.Int, error) {
	out, err := tokenABI.Unpack("balanceOf", ret)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// TransferSucceeded reports whether a transfer call both completed and did
// not explicitly return false. Empty return data counts as success.
func TransferSucceeded(res *ledger.Result) bool {
	if !res.Success {
		return false
	}
	if len(res.ReturnData) == 0 {
		return true
	}
	out, err := tokenABI.Unpack("transfer", res.ReturnData)
	if err != nil || len(out) != 1 {
		return false
	}
	ok, _ := out[0].(bool)
	return ok
}
