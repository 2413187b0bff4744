// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/offchainlabs/shadow-prover/rollup"
)

var ErrBatchTooLarge = errors.New("batch exceeds admission limits")

// AdmissionGuard rejects batches the prover should not be handed.
type AdmissionGuard struct {
	config ConfigFetcher
}

func NewAdmissionGuard(config ConfigFetcher) *AdmissionGuard {
	return &AdmissionGuard{config: config}
}

// AdmitSpan checks the block count of the batch.
func (g *AdmissionGuard) AdmitSpan(info rollup.BatchInfo) error {
	if blocks, limit := info.BlockCount(), g.config().MaxBlocks; blocks > limit {
		return fmt.Errorf("%w: batch %d has %d blocks, max-blocks is %d", ErrBatchTooLarge, info.BatchIndex, blocks, limit)
	}
	return nil
}

// AdmitVolume checks the transaction count of the batch.
func (g *AdmissionGuard) AdmitVolume(info rollup.BatchInfo, txns uint64) error {
	if limit := g.config().MaxTxns; txns > limit {
		return fmt.Errorf("%w: batch %d has %d transactions, max-txns is %d", ErrBatchTooLarge, info.BatchIndex, txns, limit)
	}
	return nil
}

func (g *AdmissionGuard) Admit(info rollup.BatchInfo, txns uint64) error {
	if err := g.AdmitSpan(info); err != nil {
		return err
	}
	return g.AdmitVolume(info, txns)
}
