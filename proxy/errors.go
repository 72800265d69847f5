// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proxy

import (
	"errors"
)

var (
	// Verification
	ErrNotOwner           = errors.New("not the owner")
	ErrNonceMismatch      = errors.New("nonce mismatch")
	ErrUnknownRequestType = errors.New("unknown request type")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrInvalidSignature   = errors.New("invalid signature")

	// Registry
	ErrMalformedTypeName = errors.New("invalid typename")

	// Initialization
	ErrDeploymentFee        = errors.New("unable to pay for deployment")
	ErrModuleInitialization = errors.New("unable to initialize logic module")
	ErrInvalidModule        = errors.New("logic address has no module code")
	ErrZeroOwner            = errors.New("owner is the zero address")

	// Dispatch
	ErrNoLogicModule = errors.New("no logic module installed")
	ErrMalformedCall = errors.New("malformed call data")
	ErrNotPayable    = errors.New("entry point is not payable")
	ErrValueOverflow = errors.New("value overflows 256 bits")
)

