// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"errors"
	"time"

	flag "github.com/spf13/pflag"
)

type Config struct {
	ScanWindow          uint64        `koanf:"scan-window"`
	MinCommitEvents     uint64        `koanf:"min-commit-events"`
	MaxBlocks           uint64        `koanf:"max-blocks" reload:"hot"`
	MaxTxns             uint64        `koanf:"max-txns" reload:"hot"`
	ReceiptPollInterval time.Duration `koanf:"receipt-poll-interval"`
	ReceiptTimeout      time.Duration `koanf:"receipt-timeout"`
}

type ConfigFetcher func() *Config

var DefaultConfig = Config{
	ScanWindow:          600,
	MinCommitEvents:     3,
	MaxBlocks:           300,
	MaxTxns:             600,
	ReceiptPollInterval: 2 * time.Second,
	ReceiptTimeout:      5 * time.Minute,
}

var TestConfig = Config{
	ScanWindow:          600,
	MinCommitEvents:     3,
	MaxBlocks:           300,
	MaxTxns:             600,
	ReceiptPollInterval: time.Millisecond,
	ReceiptTimeout:      time.Second,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Uint64(prefix+".scan-window", DefaultConfig.ScanWindow, "number of recent L1 blocks searched for CommitBatch events")
	f.Uint64(prefix+".min-commit-events", DefaultConfig.MinCommitEvents, "minimum number of CommitBatch events in the scan window before a batch is picked")
	f.Uint64(prefix+".max-blocks", DefaultConfig.MaxBlocks, "largest batch (in L2 blocks) that will be replayed")
	f.Uint64(prefix+".max-txns", DefaultConfig.MaxTxns, "largest batch (in L2 transactions) that will be replayed")
	f.Duration(prefix+".receipt-poll-interval", DefaultConfig.ReceiptPollInterval, "how often to poll for the receipt of a shadow commit")
	f.Duration(prefix+".receipt-timeout", DefaultConfig.ReceiptTimeout, "how long to wait for a shadow commit to be included")
}

func (c *Config) Validate() error {
	if c.ScanWindow == 0 {
		return errors.New("syncer scan-window must be positive")
	}
	// the candidate is the second to last event, so two are the least that can work
	if c.MinCommitEvents < 2 {
		return errors.New("syncer min-commit-events must be at least 2")
	}
	if c.MaxBlocks == 0 {
		return errors.New("syncer max-blocks must be positive")
	}
	if c.ReceiptPollInterval <= 0 {
		return errors.New("syncer receipt-poll-interval must be positive")
	}
	return nil
}
