// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrOutOfGas            = errors.New("out of gas")
	ErrCallDepth           = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

var (
	revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]
	reasonArgs     = abi.Arguments{{Type: MustNewType("string")}}
)

// RevertError is returned by contracts that abort with explicit revert data.
type RevertError struct {
	reason string
	data   []byte
	cause  error
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.reason
}

// Data returns the raw revert payload.
func (e *RevertError) Data() []byte { return e.data }

func (e *RevertError) Unwrap() error { return e.cause }

// Revert aborts the current call with an Error(string) payload.
func Revert(reason string) error {
	return &RevertError{reason: reason, data: encodeReason(reason)}
}

// Fail aborts the current call with [err] as the revert reason. The error
// stays reachable through errors.Is on the call result.
func Fail(err error) error {
	r := err.Error()
	return &RevertError{reason: r, data: encodeReason(r), cause: err}
}

// Revert aborts the current call with the outcome of a failed sub-call,
// keeping both its revert data and its error.
func (r *Result) Revert() error {
	reason, err := abi.UnpackRevert(r.ReturnData)
	if err != nil {
		reason = "custom error"
	}
	return &RevertError{reason: reason, data: common.CopyBytes(r.ReturnData), cause: r.Err}
}

// RevertReason decodes the reason carried by Error(string) revert data.
func RevertReason(data []byte) (string, error) {
	return abi.UnpackRevert(data)
}

func encodeReason(reason string) []byte {
	enc, err := reasonArgs.Pack(reason)
	if err != nil {
		return nil
	}
	return append(common.CopyBytes(revertSelector), enc...)
}

func revertData(err error) []byte {
	var rerr *RevertError
	if errors.As(err, &rerr) {
		return rerr.data
	}
	return encodeReason(err.Error())
}

// MustNewType parses a solidity type name and panics on failure. Used for
// package level argument lists.
func MustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
