// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ethereum/go-ethereum/common"
)

// 0x0/ (named cells)
//   -> owner
//   -> logic
// 0x1/ (registered request types)
//   -> [type hash]
// 0x2/ (nonces)
//   -> [signer]
// 0x3/ (logic module namespace)

const (
	cellPrefix   = 0x0
	typePrefix   = 0x1
	noncePrefix  = 0x2
	modulePrefix = 0x3

	delimiter = '/'
)

var (
	ownerKey = []byte{cellPrefix, delimiter, 'o'}
	logicKey = []byte{cellPrefix, delimiter, 'l'}

	present = []byte{0x1}
)

// State is the persisted record of a single proxy.
type State struct {
	db database.Database
}

func NewState(db database.Database) *State {
	return &State{db: db}
}

func TypeKey(typeHash common.Hash) []byte {
	return append([]byte{typePrefix, delimiter}, typeHash[:]...)
}

func NonceKey(signer common.Address) []byte {
	return append([]byte{noncePrefix, delimiter}, signer[:]...)
}

// ModuleStorage is the namespace reserved for the installed logic module.
// It cannot address any of the proxy's own cells.
func (s *State) ModuleStorage() database.Database {
	return prefixdb.New([]byte{modulePrefix, delimiter}, s.db)
}

func (s *State) address(k []byte) (common.Address, error) {
	v, err := s.db.Get(k)
	if errors.Is(err, database.ErrNotFound) {
		return common.Address{}, nil
	}
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(v), nil
}

// Owner is the zero address until the proxy is initialized.
func (s *State) Owner() (common.Address, error) { return s.address(ownerKey) }

func (s *State) Logic() (common.Address, error) { return s.address(logicKey) }

func (s *State) setOwner(owner common.Address) error {
	return s.db.Put(ownerKey, owner[:])
}

func (s *State) setLogic(logic common.Address) error {
	return s.db.Put(logicKey, logic[:])
}

func (s *State) IsRegistered(typeHash common.Hash) (bool, error) {
	return s.db.Has(TypeKey(typeHash))
}

func (s *State) register(typeHash common.Hash) error {
	return s.db.Put(TypeKey(typeHash), present)
}

func (s *State) Nonce(signer common.Address) (uint64, error) {
	v, err := s.db.Get(NonceKey(signer))
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *State) incrementNonce(signer common.Address) error {
	n, err := s.Nonce(signer)
	if err != nil {
		return err
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n+1)
	return s.db.Put(NonceKey(signer), b)
}
