// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ava-labs/enveloping/ledger"
)

// RecoverGas is charged for every signature check.
const RecoverGas uint64 = 3_000

// verify checks that [e] may be executed against [state] right now. It
// never writes.
func (p *Proxy) verify(f *ledger.Frame, state *State, e *Envelope) error {
	req := e.Request
	owner, err := state.Owner()
	if err != nil {
		return err
	}
	if owner != req.From {
		return fmt.Errorf("%w: %s", ErrNotOwner, req.From)
	}

	nonce, err := state.Nonce(req.From)
	if err != nil {
		return err
	}
	if n := safeBig(req.Nonce); !n.IsUint64() || n.Uint64() != nonce {
		return fmt.Errorf("%w: expected %d, got %s", ErrNonceMismatch, nonce, n)
	}

	registered, err := state.IsRegistered(e.RequestTypeHash)
	if err != nil {
		return err
	}
	if !registered {
		return fmt.Errorf("%w: %s", ErrUnknownRequestType, e.RequestTypeHash)
	}

	if err := f.UseGas(RecoverGas); err != nil {
		return err
	}
	digest, err := e.Digest()
	if err != nil {
		return err
	}
	signer, err := p.recover(digest, e.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	if signer != req.From {
		return fmt.Errorf("%w: recovered %s", ErrSignatureMismatch, signer)
	}
	return nil
}

func (p *Proxy) recover(digest common.Hash, sig []byte) (common.Address, error) {
	key := ids.ID(crypto.Keccak256Hash(digest[:], sig))
	if v, ok := p.signers.Get(key); ok {
		return v.(common.Address), nil
	}
	signer, err := Recover(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	p.signers.Put(key, signer)
	return signer, nil
}
