// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/enveloping/ledger"
)

var refusingModuleAddr = common.HexToAddress("0x00000000000000000000000000000000000000d3")

func fund(t *testing.T, l *ledger.Ledger, addr common.Address, amount uint64) {
	if err := l.Update(func(f *ledger.Frame) error {
		return f.Mint(addr, new(uint256.Int).SetUint64(amount))
	}); err != nil {
		t.Fatal(err)
	}
}

func send(t *testing.T, l *ledger.Ledger, from common.Address, value uint64, data []byte) *ledger.Result {
	res, err := l.Apply(context.Background(), &ledger.Message{
		From:  from,
		To:    proxyAddr,
		Value: new(uint256.Int).SetUint64(value),
		Gas:   testGas,
		Data:  data,
	})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestFallbackWithoutModule(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	if res := te.initialize(common.Address{}, 0, nil); !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	fund(t, te.l, relay, 100)

	if res := send(t, te.l, relay, 0, []byte{0x12, 0x34, 0x56, 0x78}); !errors.Is(res.Err, ErrNoLogicModule) {
		t.Fatalf("expected %v, got %v", ErrNoLogicModule, res.Err)
	}
	if res := send(t, te.l, relay, 7, nil); !res.Success {
		t.Fatalf("deposit failed %v", res.Err)
	}
	if bal := te.native(proxyAddr); bal != 57 {
		t.Fatalf("expected 57, got %d", bal)
	}

	// Entry points other than execute and directExecute take no value.
	data, err := PackOwner()
	if err != nil {
		t.Fatal(err)
	}
	if res := send(t, te.l, relay, 1, data); !errors.Is(res.Err, ErrNotPayable) {
		t.Fatalf("expected %v, got %v", ErrNotPayable, res.Err)
	}
}

func TestFallbackWithModule(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	if res := te.initialize(moduleAddr, 0, nil); !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	input := []byte{0xca, 0xfe, 0xba, 0xbe, 0x01}
	res := send(t, te.l, relay, 0, input)
	if !res.Success || !bytes.Equal(res.ReturnData, input) {
		t.Fatalf("fallback not delegated: %v %x", res.Err, res.ReturnData)
	}

	data, err := PackLogic()
	if err != nil {
		t.Fatal(err)
	}
	res = te.l.Simulate(context.Background(), &ledger.Message{From: relay, To: proxyAddr, Gas: testGas, Data: data})
	logic, err := UnpackAddress(res.ReturnData)
	if err != nil || logic != moduleAddr {
		t.Fatalf("unexpected logic %s (%v)", logic, err)
	}
}

func TestFallbackPropagatesFailure(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	te.l.Deploy(refusingModuleAddr, &testModule{failCall: true})
	if res := te.initialize(refusingModuleAddr, 0, nil); !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	res := send(t, te.l, relay, 0, []byte{0x01, 0x02, 0x03, 0x04})
	if res.Success {
		t.Fatal("module failure not propagated")
	}
	reason, err := ledger.RevertReason(res.ReturnData)
	if err != nil || reason != "module: refused" {
		t.Fatalf("unexpected revert %q (%v)", reason, err)
	}
}

func TestDirectExecute(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	if res := te.initialize(common.Address{}, 0, nil); !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	fund(t, te.l, te.owner, 100)
	fund(t, te.l, relay, 100)

	data, err := PackDirectExecute(recorderAddr, []byte{0x01})
	if err != nil {
		t.Fatal(err)
	}
	if res := send(t, te.l, relay, 5, data); !errors.Is(res.Err, ErrNotOwner) {
		t.Fatalf("expected %v, got %v", ErrNotOwner, res.Err)
	}

	res := send(t, te.l, te.owner, 5, data)
	if !res.Success {
		t.Fatalf("direct execute reverted %v", res.Err)
	}
	success, ret, err := UnpackDirectExecute(res.ReturnData)
	if err != nil || !success || !bytes.Equal(ret, []byte("recorded")) {
		t.Fatalf("unexpected result %t %q (%v)", success, ret, err)
	}
	if input := te.stored(recorderAddr, "input"); !bytes.Equal(input, []byte{0x01}) {
		t.Fatalf("unexpected action input %x", input)
	}
	if v := te.native(recorderAddr); v != 5 {
		t.Fatalf("expected 5 forwarded, got %d", v)
	}
	// 100 - 5 sent + 50 swept
	if v := te.native(te.owner); v != 145 {
		t.Fatalf("expected 145, got %d", v)
	}
}
