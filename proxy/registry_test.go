// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ava-labs/enveloping/ledger"
)

func TestRegisterRequestType(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	if ok, err := te.state().IsRegistered(BaseRequestTypeHash()); err != nil || !ok {
		t.Fatalf("base request type not registered (%v)", err)
	}

	suffix := "RelayData relayData)RelayData(uint256 gasPrice)"
	tt := []struct {
		name string
		err  error
	}{
		{name: "RelayRequest"},
		{name: "RelayRequest"}, // idempotent but still logged
		{name: "Relay(Request", err: ErrMalformedTypeName},
		{name: "RelayRequest)", err: ErrMalformedTypeName},
	}
	for i, tv := range tt {
		data, err := PackRegisterRequestType(tv.name, suffix)
		if err != nil {
			t.Fatal(err)
		}
		res := te.apply(relay, data)
		if tv.err != nil {
			if res.Success || !errors.Is(res.Err, tv.err) {
				t.Fatalf("#%d: register err expected %v, got %v", i, tv.err, res.Err)
			}
			continue
		}
		if !res.Success {
			t.Fatalf("#%d: register failed %v", i, res.Err)
		}
		if len(res.Logs) != 1 {
			t.Fatalf("#%d: expected 1 log, got %d", i, len(res.Logs))
		}
		lg := res.Logs[0]
		if lg.Address != proxyAddr || lg.Topics[0] != RequestTypeRegisteredID() || lg.Topics[1] != RequestTypeHash(tv.name, suffix) {
			t.Fatalf("#%d: unexpected log %+v", i, lg)
		}
		out, err := ABI.Unpack("RequestTypeRegistered", lg.Data)
		if err != nil {
			t.Fatal(err)
		}
		if out[0].(string) != RequestSchema(tv.name, suffix) {
			t.Fatalf("#%d: unexpected schema %q", i, out[0])
		}
	}

	data, err := PackIsRegisteredType(RequestTypeHash("RelayRequest", suffix))
	if err != nil {
		t.Fatal(err)
	}
	res := te.l.Simulate(context.Background(), &ledger.Message{From: relay, To: proxyAddr, Gas: testGas, Data: data})
	ok, err := UnpackIsRegisteredType(res.ReturnData)
	if err != nil || !ok {
		t.Fatalf("registered type not reported (%v)", err)
	}
	if ok, _ := te.state().IsRegistered(crypto.Keccak256Hash([]byte("Relay(Request"))); ok {
		t.Fatal("malformed type registered")
	}
}

func TestBaseRequestType(t *testing.T) {
	t.Parallel()

	exp := "ForwardRequest(address from,address to,uint256 value,uint256 gas,uint256 nonce,bytes data," +
		"address tokenContract,address tokenRecipient,uint256 tokenAmount,uint256 tokenGas)"
	if BaseRequestType != exp {
		t.Fatalf("unexpected base request type %q", BaseRequestType)
	}
}
