// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package client implements "enveloping" client SDK.
package client

import (
	"context"
	"math/big"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"github.com/ava-labs/enveloping/node"
	"github.com/ava-labs/enveloping/proxy"
)

// Client defines enveloping client operations.
type Client interface {
	// Pings the node.
	Ping() (bool, error)
	// Returns the node genesis.
	Genesis() (*node.Genesis, error)
	// Returns the EIP-712 domain of a proxy.
	Domain(proxy common.Address) (*node.DomainReply, error)

	// Balance returns the native balance of an account.
	Balance(addr common.Address) (*big.Int, error)
	// TokenBalance returns the token balance of [holder].
	TokenBalance(token common.Address, holder common.Address) (*big.Int, error)

	Nonce(proxy common.Address, signer common.Address) (uint64, error)
	Owner(proxy common.Address) (common.Address, error)
	Logic(proxy common.Address) (common.Address, error)
	IsRegisteredType(proxy common.Address, typeHash common.Hash) (bool, error)

	// Verify reports whether the envelope would pass verification now. A
	// rejected envelope returns false and the revert reason.
	Verify(args *node.EnvelopeArgs) (bool, string, error)
	// Execute submits a signed envelope.
	Execute(args *node.EnvelopeArgs) (*node.Receipt, *proxy.ExecuteResult, error)
	RegisterType(args *node.RegisterTypeArgs) (*node.Receipt, error)
	Initialize(args *node.InitializeArgs) (*node.Receipt, error)
	DirectExecute(args *node.DirectExecuteArgs) (*node.Receipt, error)
	// Submit applies arbitrary calldata.
	Submit(args *node.CallArgs) (*node.Receipt, error)

	Receipt(id ids.ID) (*node.Receipt, error)
	RecentReceipts() ([]*node.Receipt, error)
	// Polls the receipt until it is found.
	PollReceipt(ctx context.Context, id ids.ID) (*node.Receipt, error)
}

// New creates a new client object.
func New(uri string, reqTimeout time.Duration) Client {
	req := rpc.NewEndpointRequester(
		uri,
		node.PublicEndpoint,
		node.Name,
		reqTimeout,
	)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) Ping() (bool, error) {
	resp := new(node.PingReply)
	err := cli.req.SendRequest(
		"ping",
		nil,
		resp,
	)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (cli *client) Genesis() (*node.Genesis, error) {
	resp := new(node.GenesisReply)
	err := cli.req.SendRequest(
		"genesis",
		nil,
		resp,
	)
	return resp.Genesis, err
}

func (cli *client) Domain(p common.Address) (*node.DomainReply, error) {
	resp := new(node.DomainReply)
	if err := cli.req.SendRequest(
		"domain",
		&node.ProxyArgs{Proxy: p},
		resp,
	); err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *client) Balance(addr common.Address) (*big.Int, error) {
	resp := new(node.BalanceReply)
	if err := cli.req.SendRequest(
		"balance",
		&node.BalanceArgs{Address: addr},
		resp,
	); err != nil {
		return nil, err
	}
	return resp.Balance, nil
}

func (cli *client) TokenBalance(token common.Address, holder common.Address) (*big.Int, error) {
	resp := new(node.BalanceReply)
	if err := cli.req.SendRequest(
		"tokenBalance",
		&node.TokenBalanceArgs{Token: token, Holder: holder},
		resp,
	); err != nil {
		return nil, err
	}
	return resp.Balance, nil
}

func (cli *client) Nonce(p common.Address, signer common.Address) (uint64, error) {
	resp := new(node.NonceReply)
	if err := cli.req.SendRequest(
		"nonce",
		&node.NonceArgs{Proxy: p, Signer: signer},
		resp,
	); err != nil {
		return 0, err
	}
	return resp.Nonce, nil
}

func (cli *client) Owner(p common.Address) (common.Address, error) {
	resp := new(node.AddressReply)
	if err := cli.req.SendRequest(
		"owner",
		&node.ProxyArgs{Proxy: p},
		resp,
	); err != nil {
		return common.Address{}, err
	}
	return resp.Address, nil
}

func (cli *client) Logic(p common.Address) (common.Address, error) {
	resp := new(node.AddressReply)
	if err := cli.req.SendRequest(
		"logic",
		&node.ProxyArgs{Proxy: p},
		resp,
	); err != nil {
		return common.Address{}, err
	}
	return resp.Address, nil
}

func (cli *client) IsRegisteredType(p common.Address, typeHash common.Hash) (bool, error) {
	resp := new(node.IsRegisteredTypeReply)
	if err := cli.req.SendRequest(
		"isRegisteredType",
		&node.IsRegisteredTypeArgs{Proxy: p, TypeHash: typeHash},
		resp,
	); err != nil {
		return false, err
	}
	return resp.Registered, nil
}

func (cli *client) Verify(args *node.EnvelopeArgs) (bool, string, error) {
	resp := new(node.VerifyReply)
	if err := cli.req.SendRequest(
		"verify",
		args,
		resp,
	); err != nil {
		return false, "", err
	}
	return resp.Valid, resp.Error, nil
}

func (cli *client) Execute(args *node.EnvelopeArgs) (*node.Receipt, *proxy.ExecuteResult, error) {
	resp := new(node.ExecuteReply)
	if err := cli.req.SendRequest(
		"execute",
		args,
		resp,
	); err != nil {
		return nil, nil, err
	}
	return resp.Receipt, resp.Result, nil
}

func (cli *client) RegisterType(args *node.RegisterTypeArgs) (*node.Receipt, error) {
	return cli.receipt("registerType", args)
}

func (cli *client) Initialize(args *node.InitializeArgs) (*node.Receipt, error) {
	return cli.receipt("initialize", args)
}

func (cli *client) DirectExecute(args *node.DirectExecuteArgs) (*node.Receipt, error) {
	return cli.receipt("directExecute", args)
}

func (cli *client) Submit(args *node.CallArgs) (*node.Receipt, error) {
	return cli.receipt("submit", args)
}

func (cli *client) Receipt(id ids.ID) (*node.Receipt, error) {
	return cli.receipt("receipt", &node.ReceiptArgs{ID: id})
}

func (cli *client) receipt(method string, args interface{}) (*node.Receipt, error) {
	resp := new(node.ReceiptReply)
	if err := cli.req.SendRequest(
		method,
		args,
		resp,
	); err != nil {
		return nil, err
	}
	return resp.Receipt, nil
}

func (cli *client) RecentReceipts() ([]*node.Receipt, error) {
	resp := new(node.RecentReceiptsReply)
	if err := cli.req.SendRequest(
		"recentReceipts",
		nil,
		resp,
	); err != nil {
		return nil, err
	}
	return resp.Receipts, nil
}

func (cli *client) PollReceipt(ctx context.Context, id ids.ID) (*node.Receipt, error) {
done:
	for ctx.Err() == nil {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			break done
		}

		r, err := cli.Receipt(id)
		if err != nil {
			color.Red("polling receipt failed %v", err)
			continue
		}
		return r, nil
	}
	return nil, ctx.Err()
}
