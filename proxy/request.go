// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/tdata"
)

// BaseRequestType is the schema every proxy accepts from deployment.
var BaseRequestType = tdata.ForwardRequestType + "(" + tdata.GenericParams() + ")"

// ForwardRequest is an action authorized off-chain by [From]. Field order
// and names mirror the request tuple of the proxy entry points.
type ForwardRequest struct {
	From           common.Address `json:"from"`
	To             common.Address `json:"to"`
	Value          *big.Int       `json:"value"`
	Gas            *big.Int       `json:"gas"`
	Nonce          *big.Int       `json:"nonce"`
	Data           []byte         `json:"data"`
	TokenContract  common.Address `json:"tokenContract"`
	TokenRecipient common.Address `json:"tokenRecipient"`
	TokenAmount    *big.Int       `json:"tokenAmount"`
	TokenGas       *big.Int       `json:"tokenGas"`
}

// Envelope is a request together with everything needed to check it.
type Envelope struct {
	Request         *ForwardRequest `json:"request"`
	DomainSeparator common.Hash     `json:"domainSeparator"`
	RequestTypeHash common.Hash     `json:"requestTypeHash"`
	SuffixData      []byte          `json:"suffixData"`
	Signature       []byte          `json:"signature"`
}

var genericArgs = abi.Arguments{
	{Type: ledger.MustNewType("address")},
	{Type: ledger.MustNewType("address")},
	{Type: ledger.MustNewType("uint256")},
	{Type: ledger.MustNewType("uint256")},
	{Type: ledger.MustNewType("uint256")},
	{Type: ledger.MustNewType("bytes32")},
	{Type: ledger.MustNewType("address")},
	{Type: ledger.MustNewType("address")},
	{Type: ledger.MustNewType("uint256")},
	{Type: ledger.MustNewType("uint256")},
}

func safeBig(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return b
}

// normalized returns a copy with every unset integer set to zero.
func (r *ForwardRequest) normalized() ForwardRequest {
	c := *r
	c.Value = safeBig(r.Value)
	c.Gas = safeBig(r.Gas)
	c.Nonce = safeBig(r.Nonce)
	c.TokenAmount = safeBig(r.TokenAmount)
	c.TokenGas = safeBig(r.TokenGas)
	if c.Data == nil {
		c.Data = []byte{}
	}
	return c
}

// encodeGeneric is abi.encode of the generic members with data replaced by
// its hash.
func (r *ForwardRequest) encodeGeneric() ([]byte, error) {
	n := r.normalized()
	return genericArgs.Pack(
		n.From,
		n.To,
		n.Value,
		n.Gas,
		n.Nonce,
		crypto.Keccak256Hash(n.Data),
		n.TokenContract,
		n.TokenRecipient,
		n.TokenAmount,
		n.TokenGas,
	)
}

// Digest is the hash a signer signs for [e].
func (e *Envelope) Digest() (common.Hash, error) {
	enc, err := e.Request.encodeGeneric()
	if err != nil {
		return common.Hash{}, err
	}
	structHash := crypto.Keccak256(e.RequestTypeHash[:], enc, e.SuffixData)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, e.DomainSeparator[:], structHash), nil
}

// CallValue is the native value to forward. It reports false if the value
// does not fit in 256 bits.
func (r *ForwardRequest) CallValue() (*uint256.Int, bool) {
	v, overflow := toUint256(r.Value)
	return v, !overflow
}

// CallGas is the gas budget of the forwarded call.
func (r *ForwardRequest) CallGas() uint64 { return gasLimit(r.Gas) }

// CallData is the forwarded calldata: the request data followed by the
// signer's address.
func (r *ForwardRequest) CallData() []byte {
	return append(common.CopyBytes(r.Data), r.From[:]...)
}

// gasLimit converts a requested gas budget, saturating at MaxUint64.
func gasLimit(b *big.Int) uint64 {
	b = safeBig(b)
	if !b.IsUint64() {
		return math.MaxUint64
	}
	return b.Uint64()
}

// TypedData renders [r] as EIP-712 typed data against [domain]. A nil
// [nested] selects the base schema.
func (r *ForwardRequest) TypedData(domain tdata.TypedDataDomain, nested *tdata.Nested) *tdata.TypedData {
	n := r.normalized()
	msg := tdata.TypedDataMessage{
		"from":           n.From,
		"to":             n.To,
		"value":          n.Value,
		"gas":            n.Gas,
		"nonce":          n.Nonce,
		"data":           n.Data,
		"tokenContract":  n.TokenContract,
		"tokenRecipient": n.TokenRecipient,
		"tokenAmount":    n.TokenAmount,
		"tokenGas":       n.TokenGas,
	}
	return tdata.CreateForwardRequest(domain, msg, nested)
}

func toUint256(b *big.Int) (*uint256.Int, bool) {
	return uint256.FromBig(safeBig(b))
}
