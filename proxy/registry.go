// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ava-labs/enveloping/ledger"
	"github.com/ava-labs/enveloping/tdata"
)

// RequestSchema is the schema text registered for [typeName].
func RequestSchema(typeName string, typeSuffix string) string {
	return typeName + "(" + tdata.GenericParams() + "," + typeSuffix
}

// RequestTypeHash is the hash of the schema registered for [typeName].
func RequestTypeHash(typeName string, typeSuffix string) common.Hash {
	return crypto.Keccak256Hash([]byte(RequestSchema(typeName, typeSuffix)))
}

// BaseRequestTypeHash is always registered.
func BaseRequestTypeHash() common.Hash {
	return crypto.Keccak256Hash([]byte(BaseRequestType))
}

// RegisterRequestType adds a request schema. Registering the same schema
// again leaves the set unchanged but still emits the event.
func RegisterRequestType(f *ledger.Frame, state *State, typeName string, typeSuffix string) error {
	if strings.ContainsAny(typeName, "()") {
		return fmt.Errorf("%w: %q", ErrMalformedTypeName, typeName)
	}
	_, err := registerType(f, state, RequestSchema(typeName, typeSuffix))
	return err
}

func registerType(f *ledger.Frame, state *State, schema string) (common.Hash, error) {
	typeHash := crypto.Keccak256Hash([]byte(schema))
	if err := state.register(typeHash); err != nil {
		return common.Hash{}, err
	}
	ev := ABI.Events["RequestTypeRegistered"]
	data, err := ev.Inputs.NonIndexed().Pack(schema)
	if err != nil {
		return common.Hash{}, err
	}
	f.Emit([]common.Hash{ev.ID, typeHash}, data)
	return typeHash, nil
}
