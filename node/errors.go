// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"errors"
)

var (
	// Genesis
	ErrInvalidChainID    = errors.New("invalid chain id")
	ErrInvalidGasLimit   = errors.New("invalid gas limit")
	ErrInvalidDomain     = errors.New("invalid domain")
	ErrUnknownModuleKind = errors.New("unknown module kind")
	ErrDuplicateDeploy   = errors.New("address deployed twice")
	ErrZeroAddress       = errors.New("zero address")
	ErrInvalidAllocation = errors.New("invalid allocation")

	// Queries
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrNotProxy        = errors.New("address is not a proxy")
	ErrEnvelopeIsNil   = errors.New("envelope is nil")
	ErrGasTooHigh      = errors.New("gas exceeds limit")
)
