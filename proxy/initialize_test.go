// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/token"
)

func TestInitialize(t *testing.T) {
	t.Parallel()

	tt := []struct {
		logic common.Address
		fee   int64
		err   error
	}{
		{fee: 5},
		{logic: moduleAddr, fee: 5},
		{fee: 5_000, err: ErrDeploymentFee},
		{logic: badModAddr, fee: 5, err: ErrModuleInitialization},
		{logic: recorderAddr, fee: 5, err: ErrModuleInitialization},
		{logic: common.HexToAddress("0xdead"), fee: 5, err: ErrModuleInitialization},
	}
	for i, tv := range tt {
		te := newTestEnv(t)
		res := te.initialize(tv.logic, tv.fee, []byte("params"))
		owner, err := te.state().Owner()
		if err != nil {
			t.Fatal(err)
		}
		logic, err := te.state().Logic()
		if err != nil {
			t.Fatal(err)
		}
		if tv.err != nil {
			if res.Success || !errors.Is(res.Err, tv.err) {
				t.Fatalf("#%d: initialize err expected %v, got %v", i, tv.err, res.Err)
			}
			if owner != (common.Address{}) || logic != (common.Address{}) {
				t.Fatalf("#%d: failed initialize stored owner %s logic %s", i, owner, logic)
			}
			if te.tokens(factory) != 0 {
				t.Fatalf("#%d: failed initialize paid the fee", i)
			}
			continue
		}
		if !res.Success {
			t.Fatalf("#%d: initialize failed %v", i, res.Err)
		}
		if owner != te.owner || logic != tv.logic {
			t.Fatalf("#%d: stored owner %s logic %s", i, owner, logic)
		}
		if paid := te.tokens(factory); paid != uint64(tv.fee) {
			t.Fatalf("#%d: expected fee %d, got %d", i, tv.fee, paid)
		}
		if tv.logic == moduleAddr {
			v, err := te.state().ModuleStorage().Get([]byte("params"))
			if err != nil || !bytes.Equal(v, []byte("params")) {
				t.Fatalf("#%d: module not initialized (%v)", i, err)
			}
		}
	}
}

func TestInitializeOnce(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	if res := te.initialize(common.Address{}, 5, nil); !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	data, err := PackInitialize(relay, moduleAddr, tokenAddr, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res := te.apply(relay, data); !res.Success {
		t.Fatalf("repeated initialize reverted %v", res.Err)
	}
	owner, _ := te.state().Owner()
	logic, _ := te.state().Logic()
	if owner != te.owner || logic != (common.Address{}) {
		t.Fatalf("repeated initialize changed owner %s logic %s", owner, logic)
	}
	if paid := te.tokens(factory); paid != 5 {
		t.Fatalf("expected a single fee, got %d", paid)
	}
}

func TestInitializeZeroOwner(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	transfer, err := token.PackTransfer(factory, big.NewInt(5))
	if err != nil {
		t.Fatal(err)
	}
	data, err := PackInitialize(common.Address{}, moduleAddr, tokenAddr, transfer, []byte("params"))
	if err != nil {
		t.Fatal(err)
	}
	res := te.apply(factory, data)
	if res.Success || !errors.Is(res.Err, ErrZeroOwner) {
		t.Fatalf("zero owner initialize err expected %v, got %v", ErrZeroOwner, res.Err)
	}
	owner, _ := te.state().Owner()
	logic, _ := te.state().Logic()
	if owner != (common.Address{}) || logic != (common.Address{}) {
		t.Fatalf("zero owner initialize stored owner %s logic %s", owner, logic)
	}
	if paid := te.tokens(factory); paid != 0 {
		t.Fatalf("zero owner initialize paid fee %d", paid)
	}

	if res := te.initialize(recorderAddr, 5, nil); res.Success {
		t.Fatal("initialize with a non-module logic succeeded")
	}
	if res := te.initialize(common.Address{}, 5, nil); !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	if res := te.initialize(moduleAddr, 5, []byte("params")); !res.Success {
		t.Fatalf("repeated initialize reverted %v", res.Err)
	}
	owner, _ = te.state().Owner()
	logic, _ = te.state().Logic()
	if owner != te.owner || logic != (common.Address{}) {
		t.Fatalf("stored owner %s logic %s", owner, logic)
	}
	if paid := te.tokens(factory); paid != 5 {
		t.Fatalf("expected a single fee, got %d", paid)
	}
}

func TestModuleStorageIsolated(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	if res := te.initialize(common.Address{}, 0, nil); !res.Success {
		t.Fatalf("initialize failed %v", res.Err)
	}
	var intruder common.Address
	intruder[0] = 0xff
	if err := te.l.Update(func(f *ledger.Frame) error {
		state := NewState(f.Storage(proxyAddr))
		store := state.ModuleStorage()
		if err := store.Put(ownerKey, intruder[:]); err != nil {
			return err
		}
		return store.Put(NonceKey(te.owner), []byte{0, 0, 0, 0, 0, 0, 0, 9})
	}); err != nil {
		t.Fatal(err)
	}
	if owner, _ := te.state().Owner(); owner != te.owner {
		t.Fatalf("module namespace reached owner cell: %s", owner)
	}
	if n := te.nonce(); n != 0 {
		t.Fatalf("module namespace reached nonce table: %d", n)
	}
}
