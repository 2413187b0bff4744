// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/rollup"
)

var ErrCommitReverted = errors.New("shadow commit reverted")

// ShadowCommitter replays commitments onto the shadow rollup and waits for
// them to be included.
type ShadowCommitter struct {
	submitter    ShadowSubmitter
	shadowRollup common.Address
	config       ConfigFetcher
}

func NewShadowCommitter(submitter ShadowSubmitter, shadowRollup common.Address, config ConfigFetcher) *ShadowCommitter {
	return &ShadowCommitter{
		submitter:    submitter,
		shadowRollup: shadowRollup,
		config:       config,
	}
}

func (c *ShadowCommitter) Commit(ctx context.Context, batchIndex uint64, fields rollup.CommitmentFields) (*types.Receipt, error) {
	data, err := rollup.PackShadowCommitBatch(batchIndex, fields)
	if err != nil {
		return nil, err
	}
	log.Info("committing batch to shadow rollup", append([]any{"batchIndex", batchIndex}, fields.LogContext()...)...)
	tx, err := c.submitter.SendCall(ctx, c.shadowRollup, data)
	if err != nil {
		return nil, errors.Wrapf(err, "submitting shadow commitBatch(%d)", batchIndex)
	}
	waitCtx := ctx
	if timeout := c.config().ReceiptTimeout; timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	receipt, err := c.submitter.WaitMined(waitCtx, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "waiting for shadow commitBatch(%d) tx %v", batchIndex, tx.Hash())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Wrapf(ErrCommitReverted, "batch %d tx %v", batchIndex, tx.Hash())
	}
	log.Info("shadow commit included", "batchIndex", batchIndex, "tx", tx.Hash(), "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
	return receipt, nil
}
