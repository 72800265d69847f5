// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/modules/allowlist"
	"github.com/ava-labs/enveloping/proxy"
	"github.com/ava-labs/enveloping/tdata"
	"github.com/ava-labs/enveloping/token"
)

type Allocation struct {
	Address common.Address        `json:"address"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type TokenGenesis struct {
	Address common.Address `json:"address"`
	Symbol  string         `json:"symbol"`
	Holders []*Allocation  `json:"holders"`
}

type ModuleGenesis struct {
	Address common.Address `json:"address"`
	Kind    string         `json:"kind"`
}

type Genesis struct {
	ChainID uint64 `json:"chainId"`

	// EIP-712 domain every proxy signs against; the verifying contract is
	// the proxy itself.
	DomainName    string `json:"domainName"`
	DomainVersion string `json:"domainVersion"`

	// GasLimit bounds the gas of every submitted call.
	GasLimit uint64 `json:"gasLimit"`

	Allocations []*Allocation    `json:"allocations"`
	Tokens      []*TokenGenesis  `json:"tokens"`
	Modules     []*ModuleGenesis `json:"modules"`

	// Proxies are the addresses the factory deploys proxies at.
	Proxies []common.Address `json:"proxies"`
}

// moduleKinds maps genesis module kinds to their code.
var moduleKinds = map[string]func() ledger.Contract{
	allowlist.Kind: func() ledger.Contract { return allowlist.New() },
}

func DefaultGenesis() *Genesis {
	return &Genesis{
		ChainID:       33,
		DomainName:    "Enveloping",
		DomainVersion: "1",
		GasLimit:      10_000_000,
	}
}

func LoadGenesis(b []byte) (*Genesis, error) {
	g := DefaultGenesis()
	if err := json.Unmarshal(b, g); err != nil {
		return nil, err
	}
	if err := g.Verify(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Genesis) Verify() error {
	if g.ChainID == 0 {
		return ErrInvalidChainID
	}
	if g.GasLimit < ledger.CallGas {
		return fmt.Errorf("%w: %d", ErrInvalidGasLimit, g.GasLimit)
	}
	if len(g.DomainName) == 0 || len(g.DomainVersion) == 0 {
		return ErrInvalidDomain
	}
	for _, a := range g.Allocations {
		if a.Balance == nil || (*big.Int)(a.Balance).Sign() < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidAllocation, a.Address)
		}
	}

	seen := map[common.Address]struct{}{}
	deploy := func(addr common.Address) error {
		if addr == (common.Address{}) {
			return ErrZeroAddress
		}
		if _, ok := seen[addr]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateDeploy, addr)
		}
		seen[addr] = struct{}{}
		return nil
	}
	for _, t := range g.Tokens {
		if err := deploy(t.Address); err != nil {
			return err
		}
		for _, h := range t.Holders {
			if h.Balance == nil || (*big.Int)(h.Balance).Sign() < 0 {
				return fmt.Errorf("%w: %s", ErrInvalidAllocation, h.Address)
			}
		}
	}
	for _, m := range g.Modules {
		if err := deploy(m.Address); err != nil {
			return err
		}
		if _, ok := moduleKinds[m.Kind]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownModuleKind, m.Kind)
		}
	}
	for _, p := range g.Proxies {
		if err := deploy(p); err != nil {
			return err
		}
	}
	return nil
}

// Domain is the EIP-712 domain of the proxy at [verifyingContract].
func (g *Genesis) Domain(verifyingContract common.Address) tdata.TypedDataDomain {
	return tdata.TypedDataDomain{
		Name:              g.DomainName,
		Version:           g.DomainVersion,
		ChainID:           math.NewHexOrDecimal256(int64(g.ChainID)),
		VerifyingContract: verifyingContract,
	}
}

// Load deploys every genesis account onto [l].
func (g *Genesis) Load(l *ledger.Ledger, p *proxy.Proxy) error {
	for _, t := range g.Tokens {
		l.Deploy(t.Address, token.New(t.Symbol))
	}
	for _, m := range g.Modules {
		l.Deploy(m.Address, moduleKinds[m.Kind]())
	}
	for _, addr := range g.Proxies {
		if err := proxy.Deploy(l, addr, p); err != nil {
			return err
		}
	}
	return l.Update(func(f *ledger.Frame) error {
		for _, a := range g.Allocations {
			amount, err := toUint256(a.Balance)
			if err != nil {
				return err
			}
			if err := f.Mint(a.Address, amount); err != nil {
				return err
			}
		}
		for _, t := range g.Tokens {
			for _, h := range t.Holders {
				amount, err := toUint256(h.Balance)
				if err != nil {
					return err
				}
				if err := token.Mint(f, t.Address, h.Address, amount); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func toUint256(v *math.HexOrDecimal256) (*uint256.Int, error) {
	amount, overflow := uint256.FromBig((*big.Int)(v))
	if overflow {
		return nil, fmt.Errorf("%w: balance overflows", ErrInvalidAllocation)
	}
	return amount, nil
}
