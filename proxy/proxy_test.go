// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/tdata"
	"github.com/ava-labs/enveloping/token"
)

const testGas = 1_000_000

var (
	proxyAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	recorderAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	refuserAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	moduleAddr   = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	badModAddr   = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	relay        = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	factory      = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

// recorder stores what it was called with.
type recorder struct {
	fail bool
}

func (r *recorder) Run(_ context.Context, f *ledger.Frame, input []byte) ([]byte, error) {
	if r.fail {
		return nil, ledger.Revert("recorder: refused")
	}
	store := f.Storage(f.Self())
	if err := store.Put([]byte("input"), input); err != nil {
		return nil, err
	}
	if err := store.Put([]byte("caller"), f.Caller().Bytes()); err != nil {
		return nil, err
	}
	return []byte("recorded"), nil
}

type testModule struct {
	failInit bool
	failCall bool
}

func (m *testModule) Run(context.Context, *ledger.Frame, []byte) ([]byte, error) {
	return nil, ledger.Revert("module: direct call")
}

func (m *testModule) Initialize(_ context.Context, env *Env, params []byte) error {
	if m.failInit {
		return errors.New("module: refused")
	}
	return env.Store.Put([]byte("params"), params)
}

func (m *testModule) Fallback(_ context.Context, env *Env, input []byte) ([]byte, error) {
	if m.failCall {
		return nil, ledger.Revert("module: refused")
	}
	if e, ok := DecodeExecute(input); ok {
		if err := env.Store.Put([]byte("executed"), e.Request.Data); err != nil {
			return nil, err
		}
		return []byte("executed"), nil
	}
	return input, nil
}

type testEnv struct {
	t      *testing.T
	db     database.Database
	l      *ledger.Ledger
	key    *ecdsa.PrivateKey
	owner  common.Address
	domain common.Hash
}

func mustKey(t *testing.T, hex string) *ecdsa.PrivateKey {
	k, err := crypto.HexToECDSA(hex)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

// newTestEnv deploys a proxy holding 1000 fee tokens and 50 native units.
func newTestEnv(t *testing.T) *testEnv {
	db := memdb.New()
	l := ledger.New(db)
	l.Deploy(tokenAddr, token.New("FEE"))
	l.Deploy(recorderAddr, &recorder{})
	l.Deploy(refuserAddr, &recorder{fail: true})
	l.Deploy(moduleAddr, &testModule{})
	l.Deploy(badModAddr, &testModule{failInit: true})
	if err := Deploy(l, proxyAddr, New()); err != nil {
		t.Fatal(err)
	}
	if err := l.Update(func(f *ledger.Frame) error {
		if err := f.Mint(proxyAddr, new(uint256.Int).SetUint64(50)); err != nil {
			return err
		}
		return token.Mint(f, tokenAddr, proxyAddr, new(uint256.Int).SetUint64(1000))
	}); err != nil {
		t.Fatal(err)
	}
	key := mustKey(t, "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	domain, err := tdata.DomainSeparator(testDomain())
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		t:      t,
		db:     db,
		l:      l,
		key:    key,
		owner:  crypto.PubkeyToAddress(key.PublicKey),
		domain: domain,
	}
}

func testDomain() tdata.TypedDataDomain {
	return tdata.TypedDataDomain{
		Name:              "Enveloping",
		Version:           "1",
		ChainID:           math.NewHexOrDecimal256(33),
		VerifyingContract: proxyAddr,
	}
}

func (te *testEnv) apply(from common.Address, data []byte) *ledger.Result {
	res, err := te.l.Apply(context.Background(), &ledger.Message{From: from, To: proxyAddr, Gas: testGas, Data: data})
	if err != nil {
		te.t.Fatal(err)
	}
	return res
}

func (te *testEnv) initialize(logic common.Address, fee int64, params []byte) *ledger.Result {
	transfer, err := token.PackTransfer(factory, big.NewInt(fee))
	if err != nil {
		te.t.Fatal(err)
	}
	data, err := PackInitialize(te.owner, logic, tokenAddr, transfer, params)
	if err != nil {
		te.t.Fatal(err)
	}
	return te.apply(factory, data)
}

func (te *testEnv) state() *State {
	return NewState(prefixdb.New(ledger.StorageKey(proxyAddr), te.db))
}

func (te *testEnv) nonce() uint64 {
	n, err := te.state().Nonce(te.owner)
	if err != nil {
		te.t.Fatal(err)
	}
	return n
}

func (te *testEnv) tokens(holder common.Address) uint64 {
	bal, err := token.BalanceOf(prefixdb.New(ledger.StorageKey(tokenAddr), te.db), holder)
	if err != nil {
		te.t.Fatal(err)
	}
	return bal.Uint64()
}

func (te *testEnv) native(holder common.Address) uint64 {
	bal, err := te.l.Balance(holder)
	if err != nil {
		te.t.Fatal(err)
	}
	return bal.Uint64()
}

func (te *testEnv) stored(addr common.Address, k string) []byte {
	v, err := prefixdb.New(ledger.StorageKey(addr), te.db).Get([]byte(k))
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		te.t.Fatal(err)
	}
	return v
}

func (te *testEnv) request(nonce uint64) *ForwardRequest {
	return &ForwardRequest{
		From:           te.owner,
		To:             recorderAddr,
		Value:          new(big.Int),
		Gas:            big.NewInt(100_000),
		Nonce:          new(big.Int).SetUint64(nonce),
		Data:           []byte{0xde, 0xad},
		TokenContract:  tokenAddr,
		TokenRecipient: relay,
		TokenAmount:    big.NewInt(10),
		TokenGas:       big.NewInt(50_000),
	}
}

func (te *testEnv) sign(req *ForwardRequest, key *ecdsa.PrivateKey) *Envelope {
	e := &Envelope{
		Request:         req,
		DomainSeparator: te.domain,
		RequestTypeHash: BaseRequestTypeHash(),
	}
	te.signEnvelope(e, key)
	return e
}

func (te *testEnv) signEnvelope(e *Envelope, key *ecdsa.PrivateKey) {
	digest, err := e.Digest()
	if err != nil {
		te.t.Fatal(err)
	}
	sig, err := Sign(digest, key)
	if err != nil {
		te.t.Fatal(err)
	}
	e.Signature = sig
}

func (te *testEnv) execute(e *Envelope) (*ledger.Result, *ExecuteResult) {
	data, err := PackExecute(e)
	if err != nil {
		te.t.Fatal(err)
	}
	res := te.apply(relay, data)
	if !res.Success {
		return res, nil
	}
	out, err := UnpackExecute(res.ReturnData)
	if err != nil {
		te.t.Fatal(err)
	}
	return res, out
}

func TestDispatchUnknownMethod(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	m := &abi.Method{Name: "selfDestruct", StateMutability: "nonpayable"}
	err := te.l.Update(func(f *ledger.Frame) error {
		_, err := New().dispatch(context.Background(), f, te.state(), m, []byte{0, 0, 0, 0})
		return err
	})
	if !errors.Is(err, ErrMalformedCall) {
		t.Fatalf("expected %v, got %v", ErrMalformedCall, err)
	}
	if owner, _ := te.state().Owner(); owner != (common.Address{}) {
		t.Fatalf("unknown method stored owner %s", owner)
	}
}
