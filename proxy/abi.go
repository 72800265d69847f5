// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const requestTuple = `{"name":"req","type":"tuple","components":[
	{"name":"from","type":"address"},
	{"name":"to","type":"address"},
	{"name":"value","type":"uint256"},
	{"name":"gas","type":"uint256"},
	{"name":"nonce","type":"uint256"},
	{"name":"data","type":"bytes"},
	{"name":"tokenContract","type":"address"},
	{"name":"tokenRecipient","type":"address"},
	{"name":"tokenAmount","type":"uint256"},
	{"name":"tokenGas","type":"uint256"}]}`

const envelopeInputs = requestTuple + `,
	{"name":"domainSeparator","type":"bytes32"},
	{"name":"requestTypeHash","type":"bytes32"},
	{"name":"suffixData","type":"bytes"},
	{"name":"signature","type":"bytes"}`

const abiJSON = `[
	{"type":"function","name":"execute","stateMutability":"payable",
	 "inputs":[` + envelopeInputs + `],
	 "outputs":[{"name":"success","type":"bool"},{"name":"ret","type":"bytes"},{"name":"status","type":"uint8"}]},
	{"type":"function","name":"verify","stateMutability":"view",
	 "inputs":[` + envelopeInputs + `],
	 "outputs":[]},
	{"type":"function","name":"getNonce","stateMutability":"view",
	 "inputs":[{"name":"from","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"registerRequestType","stateMutability":"nonpayable",
	 "inputs":[{"name":"typeName","type":"string"},{"name":"typeSuffix","type":"string"}],
	 "outputs":[]},
	{"type":"function","name":"isRegisteredType","stateMutability":"view",
	 "inputs":[{"name":"typeHash","type":"bytes32"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"initialize","stateMutability":"nonpayable",
	 "inputs":[{"name":"owner","type":"address"},{"name":"logic","type":"address"},
	           {"name":"tokenAddr","type":"address"},{"name":"transferData","type":"bytes"},
	           {"name":"initParams","type":"bytes"}],
	 "outputs":[]},
	{"type":"function","name":"owner","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"logic","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"directExecute","stateMutability":"payable",
	 "inputs":[{"name":"to","type":"address"},{"name":"data","type":"bytes"}],
	 "outputs":[{"name":"success","type":"bool"},{"name":"ret","type":"bytes"}]},
	{"type":"event","name":"RequestTypeRegistered","anonymous":false,
	 "inputs":[{"name":"typeHash","type":"bytes32","indexed":true},
	           {"name":"typeStr","type":"string","indexed":false}]}
]`

// ABI is the interface of every deployed proxy.
var ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
	ABI = parsed
}

// RequestTypeRegisteredID is the topic of RequestTypeRegistered logs.
func RequestTypeRegisteredID() common.Hash {
	return ABI.Events["RequestTypeRegistered"].ID
}

func packEnvelope(method string, e *Envelope) ([]byte, error) {
	req := e.Request.normalized()
	return ABI.Pack(method, req, e.DomainSeparator, e.RequestTypeHash, nonNil(e.SuffixData), nonNil(e.Signature))
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func PackExecute(e *Envelope) ([]byte, error) { return packEnvelope("execute", e) }

func PackVerify(e *Envelope) ([]byte, error) { return packEnvelope("verify", e) }

func PackGetNonce(from common.Address) ([]byte, error) {
	return ABI.Pack("getNonce", from)
}

func PackRegisterRequestType(typeName string, typeSuffix string) ([]byte, error) {
	return ABI.Pack("registerRequestType", typeName, typeSuffix)
}

func PackIsRegisteredType(typeHash common.Hash) ([]byte, error) {
	return ABI.Pack("isRegisteredType", typeHash)
}

func PackInitialize(
	owner common.Address,
	logic common.Address,
	feeToken common.Address,
	feeTransferData []byte,
	logicInitParams []byte,
) ([]byte, error) {
	return ABI.Pack("initialize", owner, logic, feeToken, nonNil(feeTransferData), nonNil(logicInitParams))
}

func PackOwner() ([]byte, error) { return ABI.Pack("owner") }

func PackLogic() ([]byte, error) { return ABI.Pack("logic") }

func PackDirectExecute(to common.Address, data []byte) ([]byte, error) {
	return ABI.Pack("directExecute", to, nonNil(data))
}

// ExecuteResult is the decoded return of execute.
type ExecuteResult struct {
	Success    bool   `json:"success"`
	ReturnData []byte `json:"returnData"`
	Status     Status `json:"status"`
}

func UnpackExecute(ret []byte) (*ExecuteResult, error) {
	out, err := ABI.Unpack("execute", ret)
	if err != nil {
		return nil, err
	}
	return &ExecuteResult{
		Success:    out[0].(bool),
		ReturnData: out[1].([]byte),
		Status:     Status(out[2].(uint8)),
	}, nil
}

func UnpackDirectExecute(ret []byte) (bool, []byte, error) {
	out, err := ABI.Unpack("directExecute", ret)
	if err != nil {
		return false, nil, err
	}
	return out[0].(bool), out[1].([]byte), nil
}

func UnpackGetNonce(ret []byte) (*big.Int, error) {
	out, err := ABI.Unpack("getNonce", ret)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func UnpackIsRegisteredType(ret []byte) (bool, error) {
	out, err := ABI.Unpack("isRegisteredType", ret)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// UnpackAddress decodes the return of owner and logic.
func UnpackAddress(ret []byte) (common.Address, error) {
	out, err := ABI.Unpack("owner", ret)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// DecodeEnvelope decodes the arguments of an execute or verify call,
// selector included.
func DecodeEnvelope(input []byte) (*Envelope, error) {
	if len(input) < 4 {
		return nil, ErrMalformedCall
	}
	m, err := ABI.MethodById(input[:4])
	if err != nil || (m.Name != "execute" && m.Name != "verify") {
		return nil, ErrMalformedCall
	}
	args, err := m.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCall, err)
	}
	return envelopeFromArgs(args)
}

// DecodeExecute decodes calldata delegated to a module by execute. It
// reports false for any other call.
func DecodeExecute(input []byte) (*Envelope, bool) {
	if len(input) < 4 || !bytes.Equal(input[:4], ABI.Methods["execute"].ID) {
		return nil, false
	}
	e, err := DecodeEnvelope(input)
	if err != nil {
		return nil, false
	}
	return e, true
}

func envelopeFromArgs(args []interface{}) (*Envelope, error) {
	if len(args) != 5 {
		return nil, ErrMalformedCall
	}
	req, ok := abi.ConvertType(args[0], new(ForwardRequest)).(*ForwardRequest)
	if !ok {
		return nil, ErrMalformedCall
	}
	return &Envelope{
		Request:         req,
		DomainSeparator: common.Hash(args[1].([32]byte)),
		RequestTypeHash: common.Hash(args[2].([32]byte)),
		SuffixData:      args[3].([]byte),
		Signature:       args[4].([]byte),
	}, nil
}
