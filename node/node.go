// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node hosts proxies on a single in-memory ledger and serves them
// to relays and signers over JSON-RPC.
package node

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/proxy"
	"github.com/ava-labs/enveloping/token"
)

var (
	ledgerPrefix   = []byte("ledger")
	receiptsPrefix = []byte("receipts")
)

type Node struct {
	config  Config
	genesis *Genesis

	// mu serializes every ledger operation.
	mu       sync.Mutex
	db       database.Database
	ledger   *ledger.Ledger
	receipts database.Database
	proxies  map[common.Address]struct{}
	recent   []*Receipt
	seq      uint64
}

func New(config Config, genesis *Genesis) (*Node, error) {
	if err := genesis.Verify(); err != nil {
		return nil, err
	}
	db := memdb.New()
	n := &Node{
		config:   config,
		genesis:  genesis,
		db:       db,
		ledger:   ledger.New(prefixdb.New(ledgerPrefix, db)),
		receipts: prefixdb.New(receiptsPrefix, db),
		proxies:  make(map[common.Address]struct{}, len(genesis.Proxies)),
	}
	if err := genesis.Load(n.ledger, proxy.New()); err != nil {
		return nil, err
	}
	for _, p := range genesis.Proxies {
		n.proxies[p] = struct{}{}
	}
	log.Info("loaded genesis",
		"chainID", genesis.ChainID,
		"proxies", len(genesis.Proxies),
		"tokens", len(genesis.Tokens),
		"modules", len(genesis.Modules),
	)
	return n, nil
}

func (n *Node) Genesis() *Genesis { return n.genesis }

func (n *Node) Close() error {
	return n.db.Close()
}

func (n *Node) IsProxy(addr common.Address) bool {
	_, ok := n.proxies[addr]
	return ok
}

func (n *Node) gas(requested uint64, limit uint64) (uint64, error) {
	if requested == 0 {
		return limit, nil
	}
	if requested > limit {
		return 0, fmt.Errorf("%w: %d > %d", ErrGasTooHigh, requested, limit)
	}
	return requested, nil
}

// Submit applies [msg] and records its receipt.
func (n *Node) Submit(ctx context.Context, msg *ledger.Message) (*Receipt, error) {
	gas, err := n.gas(msg.Gas, n.genesis.GasLimit)
	if err != nil {
		return nil, err
	}
	msg.Gas = gas

	n.mu.Lock()
	defer n.mu.Unlock()

	id, err := callID(n.seq, msg)
	if err != nil {
		return nil, err
	}
	res, err := n.ledger.Apply(ctx, msg)
	if err != nil {
		return nil, err
	}
	r := &Receipt{
		ID:         id,
		Seq:        n.seq,
		From:       msg.From,
		To:         msg.To,
		Method:     methodName(msg.Data),
		Success:    res.Success,
		ReturnData: res.ReturnData,
		GasUsed:    res.GasUsed,
		Logs:       convertLogs(res.Logs),
		Timestamp:  time.Now().Unix(),
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	if r.Success && r.Method == "execute" && n.IsProxy(msg.To) {
		out, err := proxy.UnpackExecute(res.ReturnData)
		if err != nil {
			return nil, err
		}
		r.Status = uint8(out.Status)
	}
	if err := putReceipt(n.receipts, r); err != nil {
		return nil, err
	}
	n.seq++
	n.recent = append(n.recent, r)
	if l := len(n.recent); l > n.config.RecentReceipts {
		n.recent = n.recent[l-n.config.RecentReceipts:]
	}
	log.Debug("applied message",
		"id", r.ID,
		"from", r.From,
		"to", r.To,
		"method", r.Method,
		"success", r.Success,
		"gasUsed", r.GasUsed,
	)
	return r, nil
}

// Call runs [msg] without persisting anything.
func (n *Node) Call(ctx context.Context, msg *ledger.Message) (*ledger.Result, error) {
	gas, err := n.gas(msg.Gas, n.config.CallGasCap)
	if err != nil {
		return nil, err
	}
	msg.Gas = gas

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Simulate(ctx, msg), nil
}

// query simulates a read-only proxy or token call and fails if it reverts.
func (n *Node) query(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	res, err := n.Call(ctx, &ledger.Message{To: to, Data: data})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, res.Err
	}
	return res.ReturnData, nil
}

func (n *Node) Receipt(id ids.ID) (*Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return getReceipt(n.receipts, id)
}

// RecentReceipts returns the latest receipts, newest first.
func (n *Node) RecentReceipts() []*Receipt {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Receipt, len(n.recent))
	for i, r := range n.recent {
		out[len(n.recent)-1-i] = r
	}
	return out
}

func (n *Node) Balance(addr common.Address) (*uint256.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Balance(addr)
}

func (n *Node) TokenBalance(ctx context.Context, tkn common.Address, holder common.Address) (*big.Int, error) {
	data, err := token.PackBalanceOf(holder)
	if err != nil {
		return nil, err
	}
	ret, err := n.query(ctx, tkn, data)
	if err != nil {
		return nil, err
	}
	return token.UnpackBalanceOf(ret)
}

func methodName(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	m, err := proxy.ABI.MethodById(data[:4])
	if err != nil {
		return ""
	}
	return m.Name
}
