// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/enveloping/tdata"
)

func sampleRequest() *ForwardRequest {
	return &ForwardRequest{
		From:           common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:             common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Value:          big.NewInt(3),
		Gas:            big.NewInt(40_000),
		Nonce:          big.NewInt(4),
		Data:           []byte("hello"),
		TokenContract:  common.HexToAddress("0x3333333333333333333333333333333333333333"),
		TokenRecipient: common.HexToAddress("0x4444444444444444444444444444444444444444"),
		TokenAmount:    big.NewInt(5),
		TokenGas:       big.NewInt(60_000),
	}
}

func TestDigestMatchesTypedData(t *testing.T) {
	t.Parallel()

	domain := testDomain()
	sep, err := tdata.DomainSeparator(domain)
	assert.NoError(t, err)
	req := sampleRequest()

	base := &Envelope{Request: req, DomainSeparator: sep, RequestTypeHash: BaseRequestTypeHash()}
	digest, err := base.Digest()
	assert.NoError(t, err)
	exp, err := tdata.DigestHash(req.TypedData(domain, nil))
	assert.NoError(t, err)
	assert.Equal(t, exp, digest.Bytes())

	nested := &tdata.Nested{
		RequestType: "RelayRequest",
		Name:        "relayData",
		Type:        "RelayData",
		Fields: []tdata.Type{
			{Name: "gasPrice", Type: "uint256"},
			{Name: "feesReceiver", Type: "address"},
		},
		Message: tdata.TypedDataMessage{
			"gasPrice":     big.NewInt(60),
			"feesReceiver": common.HexToAddress("0x5555555555555555555555555555555555555555"),
		},
	}
	suffix, err := nested.SuffixData()
	assert.NoError(t, err)
	ext := &Envelope{
		Request:         req,
		DomainSeparator: sep,
		RequestTypeHash: RequestTypeHash(nested.RequestType, nested.TypeSuffix()),
		SuffixData:      suffix,
	}
	digest, err = ext.Digest()
	assert.NoError(t, err)
	exp, err = tdata.DigestHash(req.TypedData(domain, nested))
	assert.NoError(t, err)
	assert.Equal(t, exp, digest.Bytes())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	e := &Envelope{
		Request:         sampleRequest(),
		DomainSeparator: common.Hash{1},
		RequestTypeHash: BaseRequestTypeHash(),
		SuffixData:      []byte{},
		Signature:       bytes.Repeat([]byte{7}, 65),
	}
	data, err := PackExecute(e)
	assert.NoError(t, err)
	decoded, ok := DecodeExecute(data)
	assert.True(t, ok)
	assert.Equal(t, e, decoded)

	data, err = PackVerify(e)
	assert.NoError(t, err)
	_, ok = DecodeExecute(data)
	assert.False(t, ok)
	decoded, err = DecodeEnvelope(data)
	assert.NoError(t, err)
	assert.Equal(t, e.Request, decoded.Request)
}

func TestNilIntegersAreZero(t *testing.T) {
	t.Parallel()

	sparse := &ForwardRequest{From: common.Address{1}}
	full := &ForwardRequest{
		From:        common.Address{1},
		Value:       new(big.Int),
		Gas:         new(big.Int),
		Nonce:       new(big.Int),
		Data:        []byte{},
		TokenAmount: new(big.Int),
		TokenGas:    new(big.Int),
	}
	a, err := (&Envelope{Request: sparse}).Digest()
	assert.NoError(t, err)
	b, err := (&Envelope{Request: full}).Digest()
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(0), gasLimit(nil))
	assert.Equal(t, uint64(1<<64-1), gasLimit(new(big.Int).Lsh(big.NewInt(1), 70)))
}
