// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import "errors"

var (
	ErrRejected       = errors.New("envelope rejected")
	ErrExecuteFailed  = errors.New("execute reverted")
	ErrRequestIsNil   = errors.New("request is nil")
	ErrSignerMismatch = errors.New("key does not match request signer")
)
