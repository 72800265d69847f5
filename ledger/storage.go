// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// 0x0/ (native balances)
//   -> [address] => balance
// 0x1/ (account storage)
//   -> [address] => namespace owned by the code deployed at address

const (
	balancePrefix = 0x0
	storagePrefix = 0x1

	delimiter = '/'
)

func BalanceKey(addr common.Address) []byte {
	return append([]byte{balancePrefix, delimiter}, addr[:]...)
}

func StorageKey(addr common.Address) []byte {
	return append([]byte{storagePrefix, delimiter}, addr[:]...)
}

func GetBalance(db database.KeyValueReader, addr common.Address) (*uint256.Int, error) {
	v, err := db.Get(BalanceKey(addr))
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(v), nil
}

func PutBalance(db database.KeyValueWriter, addr common.Address, bal *uint256.Int) error {
	b := bal.Bytes32()
	return db.Put(BalanceKey(addr), b[:])
}
