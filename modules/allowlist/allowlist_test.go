// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package allowlist

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/proxy"
	"github.com/ava-labs/enveloping/token"
)

var (
	proxyAddr  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenAddr  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	moduleAddr = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	allowedTo  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	otherTo    = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	relay      = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

type sink struct{}

func (sink) Run(_ context.Context, f *ledger.Frame, input []byte) ([]byte, error) {
	return nil, f.Storage(f.Self()).Put([]byte("input"), input)
}

type harness struct {
	t     *testing.T
	l     *ledger.Ledger
	db    *memdb.Database
	owner common.Address
	sign  func(*proxy.Envelope)
	sep   common.Hash
}

func newHarness(t *testing.T) *harness {
	db := memdb.New()
	l := ledger.New(db)
	l.Deploy(tokenAddr, token.New("FEE"))
	l.Deploy(moduleAddr, New())
	l.Deploy(allowedTo, sink{})
	l.Deploy(otherTo, sink{})
	assert.NoError(t, proxy.Deploy(l, proxyAddr, proxy.New()))
	assert.NoError(t, l.Update(func(f *ledger.Frame) error {
		return token.Mint(f, tokenAddr, proxyAddr, new(uint256.Int).SetUint64(100))
	}))

	key, err := crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	assert.NoError(t, err)
	h := &harness{
		t:     t,
		l:     l,
		db:    db,
		owner: crypto.PubkeyToAddress(key.PublicKey),
		sep:   common.Hash{0x33},
	}
	h.sign = func(e *proxy.Envelope) {
		digest, err := e.Digest()
		assert.NoError(t, err)
		e.Signature, err = proxy.Sign(digest, key)
		assert.NoError(t, err)
	}

	params, err := PackInitParams([]common.Address{allowedTo})
	assert.NoError(t, err)
	data, err := proxy.PackInitialize(h.owner, moduleAddr, common.Address{}, nil, params)
	assert.NoError(t, err)
	res := h.call(relay, proxyAddr, data)
	if !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	return h
}

func (h *harness) call(from common.Address, to common.Address, data []byte) *ledger.Result {
	res, err := h.l.Apply(context.Background(), &ledger.Message{From: from, To: to, Gas: 1_000_000, Data: data})
	assert.NoError(h.t, err)
	return res
}

func (h *harness) execute(to common.Address, nonce int64) *proxy.ExecuteResult {
	e := &proxy.Envelope{
		Request: &proxy.ForwardRequest{
			From:          h.owner,
			To:            to,
			Gas:           big.NewInt(50_000),
			Nonce:         big.NewInt(nonce),
			Data:          []byte{0x42},
			TokenContract: tokenAddr,
			TokenAmount:   big.NewInt(1),
			TokenGas:      big.NewInt(20_000),
		},
		DomainSeparator: h.sep,
		RequestTypeHash: proxy.BaseRequestTypeHash(),
	}
	h.sign(e)
	data, err := proxy.PackExecute(e)
	assert.NoError(h.t, err)
	res := h.call(relay, proxyAddr, data)
	if !res.Success {
		h.t.Fatalf("execute reverted %v", res.Err)
	}
	out, err := proxy.UnpackExecute(res.ReturnData)
	assert.NoError(h.t, err)
	return out
}

func (h *harness) received(addr common.Address) []byte {
	v, _ := prefixdb.New(ledger.StorageKey(addr), h.db).Get([]byte("input"))
	return v
}

func TestForwardsOnlyAllowed(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	out := h.execute(allowedTo, 0)
	assert.Equal(t, proxy.StatusCallSucceeded, out.Status)
	assert.Equal(t, append([]byte{0x42}, h.owner[:]...), h.received(allowedTo))

	out = h.execute(otherTo, 2)
	assert.Equal(t, proxy.StatusCallFailed, out.Status)
	reason, err := ledger.RevertReason(out.ReturnData)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(reason, ErrNotAllowed.Error()), reason)
	assert.Nil(t, h.received(otherTo))
}

func TestAllow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	data, err := PackAllow(otherTo)
	assert.NoError(t, err)
	if res := h.call(relay, proxyAddr, data); !errors.Is(res.Err, proxy.ErrNotOwner) {
		t.Fatalf("expected %v, got %v", proxy.ErrNotOwner, res.Err)
	}
	if res := h.call(h.owner, proxyAddr, data); !res.Success {
		t.Fatalf("allow failed %v", res.Err)
	}

	probe, err := PackIsAllowed(otherTo)
	assert.NoError(t, err)
	res := h.l.Simulate(context.Background(), &ledger.Message{From: relay, To: proxyAddr, Gas: 100_000, Data: probe})
	ok, err := UnpackIsAllowed(res.ReturnData)
	assert.NoError(t, err)
	assert.True(t, ok)

	out := h.execute(otherTo, 0)
	assert.Equal(t, proxy.StatusCallSucceeded, out.Status)
}

func TestDirectExecuteThroughModule(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	data, err := proxy.PackDirectExecute(otherTo, []byte{0x01})
	assert.NoError(t, err)
	res := h.call(h.owner, proxyAddr, data)
	assert.True(t, res.Success)
	success, _, err := proxy.UnpackDirectExecute(res.ReturnData)
	assert.NoError(t, err)
	assert.False(t, success)

	data, err = proxy.PackDirectExecute(allowedTo, []byte{0x01})
	assert.NoError(t, err)
	res = h.call(h.owner, proxyAddr, data)
	success, _, err = proxy.UnpackDirectExecute(res.ReturnData)
	assert.NoError(t, err)
	assert.True(t, success)
	assert.Equal(t, []byte{0x01}, h.received(allowedTo))
}

func TestDirectCallRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	res := h.call(relay, moduleAddr, []byte{0x01})
	if !errors.Is(res.Err, ErrDirectCall) {
		t.Fatalf("expected %v, got %v", ErrDirectCall, res.Err)
	}
}

func TestMalformedInitParams(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	l := ledger.New(db)
	l.Deploy(moduleAddr, New())
	assert.NoError(t, proxy.Deploy(l, proxyAddr, proxy.New()))
	data, err := proxy.PackInitialize(relay, moduleAddr, common.Address{}, nil, []byte{0x01})
	assert.NoError(t, err)
	res, err := l.Apply(context.Background(), &ledger.Message{From: relay, To: proxyAddr, Gas: 1_000_000, Data: data})
	assert.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, proxy.ErrModuleInitialization))
}
