// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

const (
	// CallGas is charged to every call frame on entry.
	CallGas uint64 = 700

	MaxCallDepth = 1024
)

type gasMeter struct {
	limit uint64
	used  uint64
}

func newGasMeter(limit uint64) *gasMeter {
	return &gasMeter{limit: limit}
}

func (g *gasMeter) left() uint64 {
	return g.limit - g.used
}

func (g *gasMeter) consume(n uint64) error {
	if n > g.left() {
		g.used = g.limit
		return ErrOutOfGas
	}
	g.used += n
	return nil
}
