// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/proxy"
	"github.com/ava-labs/enveloping/tdata"
)

const (
	Name           = "enveloping"
	PublicEndpoint = "/public"
)

type PublicService struct {
	node *Node
}

type PingReply struct {
	Success bool `serialize:"true" json:"success"`
}

func (svc *PublicService) Ping(_ *http.Request, _ *struct{}, reply *PingReply) (err error) {
	log.Info("ping")
	reply.Success = true
	return nil
}

type GenesisReply struct {
	Genesis *Genesis `serialize:"true" json:"genesis"`
}

func (svc *PublicService) Genesis(_ *http.Request, _ *struct{}, reply *GenesisReply) (err error) {
	reply.Genesis = svc.node.Genesis()
	return nil
}

type ProxyArgs struct {
	Proxy common.Address `serialize:"true" json:"proxy"`
}

type DomainReply struct {
	Domain          tdata.TypedDataDomain `serialize:"true" json:"domain"`
	DomainSeparator common.Hash           `serialize:"true" json:"domainSeparator"`
	RequestTypeHash common.Hash           `serialize:"true" json:"requestTypeHash"`
}

// Domain returns what a signer needs to build a base request for [Proxy].
func (svc *PublicService) Domain(_ *http.Request, args *ProxyArgs, reply *DomainReply) error {
	if !svc.node.IsProxy(args.Proxy) {
		return fmt.Errorf("%w: %s", ErrNotProxy, args.Proxy)
	}
	domain := svc.node.Genesis().Domain(args.Proxy)
	sep, err := tdata.DomainSeparator(domain)
	if err != nil {
		return err
	}
	reply.Domain = domain
	reply.DomainSeparator = sep
	reply.RequestTypeHash = proxy.BaseRequestTypeHash()
	return nil
}

type BalanceArgs struct {
	Address common.Address `serialize:"true" json:"address"`
}

type BalanceReply struct {
	Balance *big.Int `serialize:"true" json:"balance"`
}

func (svc *PublicService) Balance(_ *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	bal, err := svc.node.Balance(args.Address)
	if err != nil {
		return err
	}
	reply.Balance = bal.ToBig()
	return nil
}

type TokenBalanceArgs struct {
	Token  common.Address `serialize:"true" json:"token"`
	Holder common.Address `serialize:"true" json:"holder"`
}

func (svc *PublicService) TokenBalance(req *http.Request, args *TokenBalanceArgs, reply *BalanceReply) error {
	bal, err := svc.node.TokenBalance(req.Context(), args.Token, args.Holder)
	if err != nil {
		return err
	}
	reply.Balance = bal
	return nil
}

type NonceArgs struct {
	Proxy  common.Address `serialize:"true" json:"proxy"`
	Signer common.Address `serialize:"true" json:"signer"`
}

type NonceReply struct {
	Nonce uint64 `serialize:"true" json:"nonce"`
}

func (svc *PublicService) Nonce(req *http.Request, args *NonceArgs, reply *NonceReply) error {
	data, err := proxy.PackGetNonce(args.Signer)
	if err != nil {
		return err
	}
	ret, err := svc.node.query(req.Context(), args.Proxy, data)
	if err != nil {
		return err
	}
	nonce, err := proxy.UnpackGetNonce(ret)
	if err != nil {
		return err
	}
	reply.Nonce = nonce.Uint64()
	return nil
}

type AddressReply struct {
	Address common.Address `serialize:"true" json:"address"`
}

func (svc *PublicService) Owner(req *http.Request, args *ProxyArgs, reply *AddressReply) error {
	data, err := proxy.PackOwner()
	if err != nil {
		return err
	}
	return svc.address(req, args.Proxy, data, reply)
}

func (svc *PublicService) Logic(req *http.Request, args *ProxyArgs, reply *AddressReply) error {
	data, err := proxy.PackLogic()
	if err != nil {
		return err
	}
	return svc.address(req, args.Proxy, data, reply)
}

func (svc *PublicService) address(req *http.Request, to common.Address, data []byte, reply *AddressReply) error {
	ret, err := svc.node.query(req.Context(), to, data)
	if err != nil {
		return err
	}
	addr, err := proxy.UnpackAddress(ret)
	if err != nil {
		return err
	}
	reply.Address = addr
	return nil
}

type IsRegisteredTypeArgs struct {
	Proxy    common.Address `serialize:"true" json:"proxy"`
	TypeHash common.Hash    `serialize:"true" json:"typeHash"`
}

type IsRegisteredTypeReply struct {
	Registered bool `serialize:"true" json:"registered"`
}

func (svc *PublicService) IsRegisteredType(req *http.Request, args *IsRegisteredTypeArgs, reply *IsRegisteredTypeReply) error {
	data, err := proxy.PackIsRegisteredType(args.TypeHash)
	if err != nil {
		return err
	}
	ret, err := svc.node.query(req.Context(), args.Proxy, data)
	if err != nil {
		return err
	}
	reply.Registered, err = proxy.UnpackIsRegisteredType(ret)
	return err
}

type EnvelopeArgs struct {
	// From is the relay submitting the envelope.
	From     common.Address  `serialize:"true" json:"from"`
	Proxy    common.Address  `serialize:"true" json:"proxy"`
	Envelope *proxy.Envelope `serialize:"true" json:"envelope"`
	Value    *big.Int        `serialize:"true" json:"value"`
	Gas      uint64          `serialize:"true" json:"gas"`
}

type VerifyReply struct {
	Valid bool   `serialize:"true" json:"valid"`
	Error string `serialize:"true" json:"error,omitempty"`
}

// Verify checks an envelope against the current proxy state. A rejected
// envelope is not an RPC error.
func (svc *PublicService) Verify(req *http.Request, args *EnvelopeArgs, reply *VerifyReply) error {
	if args.Envelope == nil || args.Envelope.Request == nil {
		return ErrEnvelopeIsNil
	}
	data, err := proxy.PackVerify(args.Envelope)
	if err != nil {
		return err
	}
	res, err := svc.node.Call(req.Context(), &ledger.Message{From: args.From, To: args.Proxy, Data: data})
	if err != nil {
		return err
	}
	reply.Valid = res.Success
	if !res.Success {
		reply.Error = reason(res)
	}
	return nil
}

type ExecuteReply struct {
	Receipt *Receipt             `serialize:"true" json:"receipt"`
	Result  *proxy.ExecuteResult `serialize:"true" json:"result,omitempty"`
}

func (svc *PublicService) Execute(req *http.Request, args *EnvelopeArgs, reply *ExecuteReply) error {
	if args.Envelope == nil || args.Envelope.Request == nil {
		return ErrEnvelopeIsNil
	}
	data, err := proxy.PackExecute(args.Envelope)
	if err != nil {
		return err
	}
	r, err := svc.submit(req, args.From, args.Proxy, args.Value, args.Gas, data)
	if err != nil {
		return err
	}
	reply.Receipt = r
	if r.Success {
		reply.Result, err = proxy.UnpackExecute(r.ReturnData)
	}
	return err
}

type RegisterTypeArgs struct {
	From       common.Address `serialize:"true" json:"from"`
	Proxy      common.Address `serialize:"true" json:"proxy"`
	TypeName   string         `serialize:"true" json:"typeName"`
	TypeSuffix string         `serialize:"true" json:"typeSuffix"`
	Gas        uint64         `serialize:"true" json:"gas"`
}

type ReceiptReply struct {
	Receipt *Receipt `serialize:"true" json:"receipt"`
}

func (svc *PublicService) RegisterType(req *http.Request, args *RegisterTypeArgs, reply *ReceiptReply) (err error) {
	data, err := proxy.PackRegisterRequestType(args.TypeName, args.TypeSuffix)
	if err != nil {
		return err
	}
	reply.Receipt, err = svc.submit(req, args.From, args.Proxy, nil, args.Gas, data)
	return err
}

type InitializeArgs struct {
	From            common.Address `serialize:"true" json:"from"`
	Proxy           common.Address `serialize:"true" json:"proxy"`
	Owner           common.Address `serialize:"true" json:"owner"`
	Logic           common.Address `serialize:"true" json:"logic"`
	FeeToken        common.Address `serialize:"true" json:"feeToken"`
	FeeTransferData hexutil.Bytes  `serialize:"true" json:"feeTransferData"`
	LogicInitParams hexutil.Bytes  `serialize:"true" json:"logicInitParams"`
	Gas             uint64         `serialize:"true" json:"gas"`
}

func (svc *PublicService) Initialize(req *http.Request, args *InitializeArgs, reply *ReceiptReply) (err error) {
	data, err := proxy.PackInitialize(args.Owner, args.Logic, args.FeeToken, args.FeeTransferData, args.LogicInitParams)
	if err != nil {
		return err
	}
	reply.Receipt, err = svc.submit(req, args.From, args.Proxy, nil, args.Gas, data)
	return err
}

type DirectExecuteArgs struct {
	From  common.Address `serialize:"true" json:"from"`
	Proxy common.Address `serialize:"true" json:"proxy"`
	To    common.Address `serialize:"true" json:"to"`
	Data  hexutil.Bytes  `serialize:"true" json:"data"`
	Value *big.Int       `serialize:"true" json:"value"`
	Gas   uint64         `serialize:"true" json:"gas"`
}

func (svc *PublicService) DirectExecute(req *http.Request, args *DirectExecuteArgs, reply *ReceiptReply) (err error) {
	data, err := proxy.PackDirectExecute(args.To, args.Data)
	if err != nil {
		return err
	}
	reply.Receipt, err = svc.submit(req, args.From, args.Proxy, args.Value, args.Gas, data)
	return err
}

type CallArgs struct {
	From  common.Address `serialize:"true" json:"from"`
	To    common.Address `serialize:"true" json:"to"`
	Data  hexutil.Bytes  `serialize:"true" json:"data"`
	Value *big.Int       `serialize:"true" json:"value"`
	Gas   uint64         `serialize:"true" json:"gas"`
}

// Submit applies arbitrary calldata, including module specific entry
// points reached through a proxy fallback.
func (svc *PublicService) Submit(req *http.Request, args *CallArgs, reply *ReceiptReply) (err error) {
	reply.Receipt, err = svc.submit(req, args.From, args.To, args.Value, args.Gas, args.Data)
	return err
}

type ReceiptArgs struct {
	ID ids.ID `serialize:"true" json:"id"`
}

func (svc *PublicService) Receipt(_ *http.Request, args *ReceiptArgs, reply *ReceiptReply) (err error) {
	reply.Receipt, err = svc.node.Receipt(args.ID)
	return err
}

type RecentReceiptsReply struct {
	Receipts []*Receipt `serialize:"true" json:"receipts"`
}

func (svc *PublicService) RecentReceipts(_ *http.Request, _ *struct{}, reply *RecentReceiptsReply) error {
	reply.Receipts = svc.node.RecentReceipts()
	return nil
}

func (svc *PublicService) submit(
	req *http.Request,
	from common.Address,
	to common.Address,
	value *big.Int,
	gas uint64,
	data []byte,
) (*Receipt, error) {
	v := new(uint256.Int)
	if value != nil {
		if value.Sign() < 0 {
			return nil, proxy.ErrValueOverflow
		}
		var overflow bool
		v, overflow = uint256.FromBig(value)
		if overflow {
			return nil, proxy.ErrValueOverflow
		}
	}
	return svc.node.Submit(req.Context(), &ledger.Message{
		From:  from,
		To:    to,
		Value: v,
		Gas:   gas,
		Data:  data,
	})
}

func reason(res *ledger.Result) string {
	if r, err := ledger.RevertReason(res.ReturnData); err == nil {
		return r
	}
	if res.Err != nil {
		return res.Err.Error()
	}
	return "reverted"
}
