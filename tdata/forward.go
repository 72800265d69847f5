// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tdata

import (
	"strings"
)

const ForwardRequestType = "ForwardRequest"

// ForwardRequestTypes are the members every request schema starts with.
var ForwardRequestTypes = []Type{
	{Name: "from", Type: "address"},
	{Name: "to", Type: "address"},
	{Name: "value", Type: "uint256"},
	{Name: "gas", Type: "uint256"},
	{Name: "nonce", Type: "uint256"},
	{Name: "data", Type: "bytes"},
	{Name: "tokenContract", Type: "address"},
	{Name: "tokenRecipient", Type: "address"},
	{Name: "tokenAmount", Type: "uint256"},
	{Name: "tokenGas", Type: "uint256"},
}

// GenericParams is the member list shared by every request schema.
func GenericParams() string {
	return joinMembers(ForwardRequestTypes)
}

// Nested describes a request schema that extends the generic members with a
// single struct-typed member.
type Nested struct {
	RequestType string           `json:"requestType"`
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Fields      []Type           `json:"fields"`
	Message     TypedDataMessage `json:"message"`
}

// Schema is the full schema text of the extended request type.
func (n *Nested) Schema() string {
	return n.RequestType + "(" + GenericParams() + "," + n.TypeSuffix()
}

// TypeSuffix is the schema text following the generic members.
func (n *Nested) TypeSuffix() string {
	return n.Type + " " + n.Name + ")" + n.Type + "(" + joinMembers(n.Fields) + ")"
}

// SuffixData is the encoding of the nested member appended to the generic
// members when hashing a request.
func (n *Nested) SuffixData() ([]byte, error) {
	td := &TypedData{Types: Types{n.Type: n.Fields}}
	return td.HashStruct(n.Type, n.Message)
}

// CreateForwardRequest builds typed data for a request. A nil [nested]
// selects the base ForwardRequest schema.
func CreateForwardRequest(domain TypedDataDomain, msg TypedDataMessage, nested *Nested) *TypedData {
	primaryType := ForwardRequestType
	fields := append([]Type{}, ForwardRequestTypes...)
	types := Types{
		"EIP712Domain": EIP712Domain,
	}
	message := make(TypedDataMessage, len(msg)+1)
	for k, v := range msg {
		message[k] = v
	}
	if nested != nil {
		primaryType = nested.RequestType
		fields = append(fields, Type{Name: nested.Name, Type: nested.Type})
		types[nested.Type] = nested.Fields
		message[nested.Name] = nested.Message
	}
	types[primaryType] = fields
	return &TypedData{
		Types:       types,
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	}
}

func joinMembers(fields []Type) string {
	members := make([]string, len(fields))
	for i, f := range fields {
		members[i] = f.Type + " " + f.Name
	}
	return strings.Join(members, ",")
}
