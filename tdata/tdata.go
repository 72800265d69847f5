// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tdata encodes and hashes EIP-712 typed data.
package tdata

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrUnknownType = errors.New("unknown type")

// Type is a single member of an EIP-712 struct
type Type struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Types map[string][]Type

type TypedDataMessage = map[string]interface{}

// TypedDataDomain is the EIP-712 domain a proxy signs against.
type TypedDataDomain struct {
	Name              string                `json:"name"`
	Version           string                `json:"version"`
	ChainID           *math.HexOrDecimal256 `json:"chainId"`
	VerifyingContract common.Address        `json:"verifyingContract"`
}

type TypedData struct {
	Types       Types            `json:"types"`
	PrimaryType string           `json:"primaryType"`
	Domain      TypedDataDomain  `json:"domain"`
	Message     TypedDataMessage `json:"message"`
}

var EIP712Domain = []Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// Map is a helper function to generate a map version of the domain
func (domain *TypedDataDomain) Map() TypedDataMessage {
	chainID := new(big.Int)
	if domain.ChainID != nil {
		chainID.Set((*big.Int)(domain.ChainID))
	}
	return TypedDataMessage{
		"name":              domain.Name,
		"version":           domain.Version,
		"chainId":           chainID,
		"verifyingContract": domain.VerifyingContract,
	}
}

// DomainSeparator is hashStruct(EIP712Domain) of [domain].
func DomainSeparator(domain TypedDataDomain) (common.Hash, error) {
	td := &TypedData{Types: Types{"EIP712Domain": EIP712Domain}, Domain: domain}
	h, err := td.HashStruct("EIP712Domain", domain.Map())
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(h), nil
}

func DigestHash(td *TypedData) ([]byte, error) {
	typedDataHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, err
	}
	domainSeparator, err := DomainSeparator(td.Domain)
	if err != nil {
		return nil, err
	}
	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator[:]), string(typedDataHash)))
	return crypto.Keccak256(rawData), nil
}

// HashStruct generates a keccak256 hash of the encoding of the provided data
func (typedData *TypedData) HashStruct(primaryType string, data TypedDataMessage) (hexutil.Bytes, error) {
	encodedData, err := typedData.EncodeData(primaryType, data, 1)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encodedData), nil
}

// Dependencies returns an array of custom types ordered by their hierarchical reference tree
func (typedData *TypedData) Dependencies(primaryType string, found []string) []string {
	includes := func(arr []string, str string) bool {
		for _, obj := range arr {
			if obj == str {
				return true
			}
		}
		return false
	}

	if includes(found, primaryType) {
		return found
	}
	if typedData.Types[primaryType] == nil {
		return found
	}
	found = append(found, primaryType)
	for _, field := range typedData.Types[primaryType] {
		for _, dep := range typedData.Dependencies(strings.TrimSuffix(field.Type, "[]"), found) {
			if !includes(found, dep) {
				found = append(found, dep)
			}
		}
	}
	return found
}

// EncodeType generates the following encoding:
// `name ‖ "(" ‖ member₁ ‖ "," ‖ member₂ ‖ "," ‖ … ‖ memberₙ ")"`
//
// each member is written as `type ‖ " " ‖ name`; referenced structs follow
// the primary type sorted by name
func (typedData *TypedData) EncodeType(primaryType string) string {
	deps := typedData.Dependencies(primaryType, []string{})
	if len(deps) > 0 {
		slicedDeps := deps[1:]
		sort.Strings(slicedDeps)
		deps = append([]string{primaryType}, slicedDeps...)
	}

	var buffer bytes.Buffer
	for _, dep := range deps {
		buffer.WriteString(dep)
		buffer.WriteString("(")
		for i, obj := range typedData.Types[dep] {
			if i > 0 {
				buffer.WriteString(",")
			}
			buffer.WriteString(obj.Type)
			buffer.WriteString(" ")
			buffer.WriteString(obj.Name)
		}
		buffer.WriteString(")")
	}
	return buffer.String()
}

func (typedData *TypedData) TypeHash(primaryType string) common.Hash {
	return crypto.Keccak256Hash([]byte(typedData.EncodeType(primaryType)))
}

// EncodeData generates the following encoding:
// `typeHash ‖ enc(value₁) ‖ enc(value₂) ‖ … ‖ enc(valueₙ)`
//
// each encoded member is 32-byte long
func (typedData *TypedData) EncodeData(primaryType string, data TypedDataMessage, depth int) (hexutil.Bytes, error) {
	fields, ok := typedData.Types[primaryType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, primaryType)
	}
	if exp, got := len(fields), len(data); exp < got {
		return nil, fmt.Errorf("there is extra data provided in the message (%d < %d)", exp, got)
	}

	buffer := bytes.Buffer{}
	typeHash := typedData.TypeHash(primaryType)
	buffer.Write(typeHash[:])

	for _, field := range fields {
		encType := field.Type
		encValue := data[field.Name]
		switch {
		case strings.HasSuffix(encType, "]"):
			arrayValue, ok := encValue.([]interface{})
			if !ok {
				return nil, dataMismatchError(encType, encValue)
			}
			arrayBuffer := bytes.Buffer{}
			parsedType := strings.Split(encType, "[")[0]
			for _, item := range arrayValue {
				if typedData.Types[parsedType] != nil {
					mapValue, ok := item.(TypedDataMessage)
					if !ok {
						return nil, dataMismatchError(parsedType, item)
					}
					h, err := typedData.HashStruct(parsedType, mapValue)
					if err != nil {
						return nil, err
					}
					arrayBuffer.Write(h)
					continue
				}
				bytesValue, err := EncodePrimitiveValue(parsedType, item)
				if err != nil {
					return nil, err
				}
				arrayBuffer.Write(bytesValue)
			}
			buffer.Write(crypto.Keccak256(arrayBuffer.Bytes()))
		case typedData.Types[encType] != nil:
			mapValue, ok := encValue.(TypedDataMessage)
			if !ok {
				return nil, dataMismatchError(encType, encValue)
			}
			h, err := typedData.HashStruct(encType, mapValue)
			if err != nil {
				return nil, err
			}
			buffer.Write(h)
		default:
			byteValue, err := EncodePrimitiveValue(encType, encValue)
			if err != nil {
				return nil, err
			}
			buffer.Write(byteValue)
		}
	}
	return buffer.Bytes(), nil
}

// Attempt to parse bytes in different formats: byte array, hash, hex string.
func parseBytes(encValue interface{}) ([]byte, bool) {
	switch v := encValue.(type) {
	case []byte:
		return v, true
	case hexutil.Bytes:
		return v, true
	case common.Hash:
		return v[:], true
	case [32]byte:
		return v[:], true
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, false
		}
		return b, true
	case nil:
		return []byte{}, true
	default:
		return nil, false
	}
}

func parseAddress(encValue interface{}) (common.Address, bool) {
	switch v := encValue.(type) {
	case common.Address:
		return v, true
	case *common.Address:
		if v == nil {
			return common.Address{}, false
		}
		return *v, true
	case string:
		if !common.IsHexAddress(v) {
			return common.Address{}, false
		}
		return common.HexToAddress(v), true
	default:
		return common.Address{}, false
	}
}

func parseInteger(encType string, encValue interface{}) (*big.Int, error) {
	var (
		length int
		signed = strings.HasPrefix(encType, "int")
		b      *big.Int
	)
	if encType == "int" || encType == "uint" {
		length = 256
	} else {
		lengthStr := strings.TrimPrefix(strings.TrimPrefix(encType, "u"), "int")
		atoiSize, err := strconv.Atoi(lengthStr)
		if err != nil {
			return nil, fmt.Errorf("invalid size on integer: %v", lengthStr)
		}
		length = atoiSize
	}
	switch v := encValue.(type) {
	case *big.Int:
		b = v
	case *math.HexOrDecimal256:
		b = (*big.Int)(v)
	case uint64:
		b = new(big.Int).SetUint64(v)
	case int64:
		b = big.NewInt(v)
	case int:
		b = big.NewInt(int64(v))
	case string:
		var hexIntValue math.HexOrDecimal256
		if err := hexIntValue.UnmarshalText([]byte(v)); err != nil {
			return nil, err
		}
		b = (*big.Int)(&hexIntValue)
	case float64:
		// JSON parses non-strings as float64. Fail if we cannot
		// convert it losslessly
		if float64(int64(v)) == v {
			b = big.NewInt(int64(v))
		} else {
			return nil, fmt.Errorf("invalid float value %v for type %v", v, encType)
		}
	}
	if b == nil {
		return nil, fmt.Errorf("invalid integer value %v/%T for type %v", encValue, encValue, encType)
	}
	if b.BitLen() > length {
		return nil, fmt.Errorf("integer larger than '%v'", encType)
	}
	if !signed && b.Sign() == -1 {
		return nil, fmt.Errorf("invalid negative value for unsigned type %v", encType)
	}
	return b, nil
}

// EncodePrimitiveValue encodes a single non-struct member to 32 bytes.
func EncodePrimitiveValue(encType string, encValue interface{}) ([]byte, error) {
	switch encType {
	case "address":
		addr, ok := parseAddress(encValue)
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		return common.LeftPadBytes(addr[:], 32), nil
	case "bool":
		boolValue, ok := encValue.(bool)
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		if boolValue {
			return math.PaddedBigBytes(common.Big1, 32), nil
		}
		return math.PaddedBigBytes(common.Big0, 32), nil
	case "string":
		strVal, ok := encValue.(string)
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		return crypto.Keccak256([]byte(strVal)), nil
	case "bytes":
		bytesValue, ok := parseBytes(encValue)
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		return crypto.Keccak256(bytesValue), nil
	}
	if strings.HasPrefix(encType, "bytes") {
		lengthStr := strings.TrimPrefix(encType, "bytes")
		length, err := strconv.Atoi(lengthStr)
		if err != nil {
			return nil, fmt.Errorf("invalid size on bytes: %v", lengthStr)
		}
		if length < 0 || length > 32 {
			return nil, fmt.Errorf("invalid size on bytes: %d", length)
		}
		byteValue, ok := parseBytes(encValue)
		if !ok || len(byteValue) != length {
			return nil, dataMismatchError(encType, encValue)
		}
		// Right-pad the bits
		dst := make([]byte, 32)
		copy(dst, byteValue)
		return dst, nil
	}
	if strings.HasPrefix(encType, "int") || strings.HasPrefix(encType, "uint") {
		b, err := parseInteger(encType, encValue)
		if err != nil {
			return nil, err
		}
		return math.U256Bytes(new(big.Int).Set(b)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, encType)
}

// dataMismatchError generates an error for a mismatch between
// the provided type and data
func dataMismatchError(encType string, encValue interface{}) error {
	return fmt.Errorf("provided data '%v' doesn't match type '%s'", encValue, encType)
}
