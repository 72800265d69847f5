// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/crypto/sha3"

	"github.com/ava-labs/enveloping/ledger"
)

// call is the serialized form of a submitted message. Its hash, together
// with the submission sequence, identifies the receipt.
type call struct {
	Seq   uint64         `serialize:"true"`
	From  common.Address `serialize:"true"`
	To    common.Address `serialize:"true"`
	Value []byte         `serialize:"true"`
	Gas   uint64         `serialize:"true"`
	Data  []byte         `serialize:"true"`
}

type Log struct {
	Address common.Address `serialize:"true" json:"address"`
	Topics  []common.Hash  `serialize:"true" json:"topics"`
	Data    []byte         `serialize:"true" json:"data"`
}

// Receipt records the outcome of a submitted message.
type Receipt struct {
	ID     ids.ID         `serialize:"true" json:"id"`
	Seq    uint64         `serialize:"true" json:"seq"`
	From   common.Address `serialize:"true" json:"from"`
	To     common.Address `serialize:"true" json:"to"`
	Method string         `serialize:"true" json:"method"`

	Success    bool   `serialize:"true" json:"success"`
	ReturnData []byte `serialize:"true" json:"returnData"`
	GasUsed    uint64 `serialize:"true" json:"gasUsed"`
	Error      string `serialize:"true" json:"error,omitempty"`
	Logs       []*Log `serialize:"true" json:"logs"`

	// Status is set for successful execute calls.
	Status uint8 `serialize:"true" json:"status"`

	Timestamp int64 `serialize:"true" json:"timestamp"`
}

func callID(seq uint64, msg *ledger.Message) (ids.ID, error) {
	c := &call{
		Seq:  seq,
		From: msg.From,
		To:   msg.To,
		Gas:  msg.Gas,
		Data: msg.Data,
	}
	if msg.Value != nil {
		b := msg.Value.Bytes32()
		c.Value = b[:]
	}
	b, err := Marshal(c)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ID(sha3.Sum256(b)), nil
}

func convertLogs(logs []*types.Log) []*Log {
	out := make([]*Log, len(logs))
	for i, l := range logs {
		out[i] = &Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return out
}

func putReceipt(db database.KeyValueWriter, r *Receipt) error {
	b, err := Marshal(r)
	if err != nil {
		return err
	}
	return db.Put(r.ID[:], b)
}

func getReceipt(db database.KeyValueReader, id ids.ID) (*Receipt, error) {
	b, err := db.Get(id[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}
	r := new(Receipt)
	if _, err := Unmarshal(b, r); err != nil {
		return nil, err
	}
	return r, nil
}
