// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildConfig(t *testing.T) {
	t.Setenv("ENVELOPING_HTTP_PORT", "9999")

	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.json")
	assert.NoError(t, os.WriteFile(cfg, []byte(`{"read-timeout":"2s","recent-receipts":7}`), 0o600))

	fs := rootCmd.Flags()
	assert.NoError(t, fs.Set(configFileKey, cfg))
	assert.NoError(t, fs.Set(callGasCapKey, "1000"))

	v, err := loadViper(fs)
	assert.NoError(t, err)
	c := buildConfig(v)
	assert.Equal(t, uint16(9999), c.HTTPPort)
	assert.Equal(t, 2*time.Second, c.ReadTimeout)
	assert.Equal(t, 7, c.RecentReceipts)
	assert.Equal(t, uint64(1000), c.CallGasCap)
	assert.Equal(t, "127.0.0.1", c.HTTPHost)
	assert.Equal(t, 30*time.Second, c.WriteTimeout)
}

func TestLoadGenesisFile(t *testing.T) {
	g, err := loadGenesis("")
	assert.NoError(t, err)
	assert.Equal(t, uint64(33), g.ChainID)

	path := filepath.Join(t.TempDir(), "genesis.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"chainId":7}`), 0o600))
	g, err = loadGenesis(path)
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), g.ChainID)
	assert.Equal(t, "Enveloping", g.DomainName)
}
