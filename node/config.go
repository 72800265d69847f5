// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"fmt"
	"time"
)

type Config struct {
	HTTPHost string `json:"httpHost"`
	HTTPPort uint16 `json:"httpPort"`

	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`

	// RecentReceipts is the number of receipts kept for recentReceipts.
	RecentReceipts int `json:"recentReceipts"`
	// CallGasCap bounds the gas of simulated calls.
	CallGasCap uint64 `json:"callGasCap"`
}

func (c *Config) SetDefaults() {
	c.HTTPHost = "127.0.0.1"
	c.HTTPPort = 9650

	c.ReadTimeout = 30 * time.Second
	c.WriteTimeout = 30 * time.Second
	c.ShutdownTimeout = 5 * time.Second

	c.RecentReceipts = 128
	c.CallGasCap = 25_000_000
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
