// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"

	"github.com/ava-labs/enveloping/node"
	"github.com/ava-labs/enveloping/proxy"
	"github.com/ava-labs/enveloping/tdata"
)

// SignEnvelope fills in the domain and, unless given, the nonce of [req]
// and signs it for the proxy at [p].
func SignEnvelope(
	cli Client,
	p common.Address,
	req *proxy.ForwardRequest,
	priv *ecdsa.PrivateKey,
	opts ...OpOption,
) (*proxy.Envelope, error) {
	ret := &Op{}
	ret.applyOpts(opts)

	if req == nil {
		return nil, ErrRequestIsNil
	}
	if signer := crypto.PubkeyToAddress(priv.PublicKey); signer != req.From {
		return nil, fmt.Errorf("%w: %s != %s", ErrSignerMismatch, signer, req.From)
	}

	domain, err := cli.Domain(p)
	if err != nil {
		return nil, err
	}
	if req.Nonce == nil {
		nonce, err := cli.Nonce(p, req.From)
		if err != nil {
			return nil, err
		}
		req.Nonce = new(big.Int).SetUint64(nonce)
	}

	e := &proxy.Envelope{
		Request:         req,
		DomainSeparator: domain.DomainSeparator,
		RequestTypeHash: domain.RequestTypeHash,
	}
	if n := ret.nested; n != nil {
		e.RequestTypeHash = proxy.RequestTypeHash(n.RequestType, n.TypeSuffix())
		if e.SuffixData, err = n.SuffixData(); err != nil {
			return nil, err
		}
	}

	dh, err := e.Digest()
	if err != nil {
		return nil, err
	}
	if e.Signature, err = proxy.Sign(dh, priv); err != nil {
		return nil, err
	}
	return e, nil
}

// Signs and relays the request through the proxy at [p]. [relay] submits
// the envelope and collects the token fee.
func SignExecute(
	ctx context.Context,
	cli Client,
	relay common.Address,
	p common.Address,
	req *proxy.ForwardRequest,
	priv *ecdsa.PrivateKey,
	opts ...OpOption,
) (*node.Receipt, *proxy.ExecuteResult, error) {
	ret := &Op{}
	ret.applyOpts(opts)

	e, err := SignEnvelope(cli, p, req, priv, opts...)
	if err != nil {
		return nil, nil, err
	}
	args := &node.EnvelopeArgs{
		From:     relay,
		Proxy:    p,
		Envelope: e,
		Gas:      ret.gas,
	}

	if ret.verify {
		valid, reason, err := cli.Verify(args)
		if err != nil {
			return nil, nil, err
		}
		if !valid {
			color.Red("envelope rejected: %s", reason)
			return nil, nil, fmt.Errorf("%w: %s", ErrRejected, reason)
		}
	}

	color.Yellow(
		"relaying request from %s to %s (nonce=%s, fee=%s of %s)",
		req.From, req.To, req.Nonce, req.TokenAmount, req.TokenContract,
	)
	r, res, err := cli.Execute(args)
	if err != nil {
		return nil, nil, err
	}
	if !r.Success {
		color.Red("execute %s reverted: %s", r.ID, r.Error)
		return r, nil, fmt.Errorf("%w: %s", ErrExecuteFailed, r.Error)
	}

	if ret.pollReceipt {
		if _, err := cli.PollReceipt(ctx, r.ID); err != nil {
			return nil, nil, err
		}
	}
	switch res.Status {
	case proxy.StatusCallSucceeded:
		color.Green("execute %s: %s (gas used=%d)", r.ID, res.Status, r.GasUsed)
	default:
		color.Yellow("execute %s: %s (gas used=%d)", r.ID, res.Status, r.GasUsed)
	}
	return r, res, nil
}

type Op struct {
	verify      bool
	pollReceipt bool
	gas         uint64
	nested      *tdata.Nested
}

type OpOption func(*Op)

func (op *Op) applyOpts(opts []OpOption) {
	for _, opt := range opts {
		opt(op)
	}
}

// "true" to verify the envelope before submitting it.
func WithVerify() OpOption {
	return func(op *Op) { op.verify = true }
}

// "true" to poll the node until the receipt is stored.
func WithPollReceipt() OpOption {
	return func(op *Op) { op.pollReceipt = true }
}

// Gas budget for the relay transaction. Zero uses the node limit.
func WithGas(gas uint64) OpOption {
	return func(op *Op) { op.gas = gas }
}

// Signs the request under an extended request type.
func WithNested(n *tdata.Nested) OpOption {
	return func(op *Op) { op.nested = n }
}
