// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/shadow-prover/rollup"
)

var ErrEmptyBlockRange = errors.New("batch block range is empty")

// BatchBoundsResolver maps a batch index to the L2 blocks it covers and
// measures how many transactions they hold.
type BatchBoundsResolver struct {
	l1      L1Reader
	l2      L2Reader
	rollup  common.Address
	metrics *Metrics
}

func NewBatchBoundsResolver(l1 L1Reader, l2 L2Reader, rollupAddr common.Address, m *Metrics) *BatchBoundsResolver {
	return &BatchBoundsResolver{
		l1:      l1,
		l2:      l2,
		rollup:  rollupAddr,
		metrics: m,
	}
}

func (r *BatchBoundsResolver) lastBlockOf(ctx context.Context, batchIndex uint64) (uint64, error) {
	data, err := rollup.PackBatchDataStore(batchIndex)
	if err != nil {
		return 0, err
	}
	rollupAddr := r.rollup
	result, err := r.l1.CallContract(ctx, ethereum.CallMsg{To: &rollupAddr, Data: data}, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "calling batchDataStore(%d)", batchIndex)
	}
	store, err := rollup.UnpackBatchDataStore(result)
	if err != nil {
		return 0, errors.Wrapf(err, "decoding batchDataStore(%d)", batchIndex)
	}
	if !store.BlockNumber.IsUint64() {
		return 0, fmt.Errorf("batchDataStore(%d) block number %v does not fit in 64 bits", batchIndex, store.BlockNumber)
	}
	return store.BlockNumber.Uint64(), nil
}

// Resolve returns the block range (prev.blockNumber+1, cur.blockNumber) of
// batchIndex, which must be non-zero.
func (r *BatchBoundsResolver) Resolve(ctx context.Context, batchIndex uint64) (rollup.BatchInfo, error) {
	if batchIndex == 0 {
		return rollup.BatchInfo{}, ErrZeroBatchIndex
	}
	prevLast, err := r.lastBlockOf(ctx, batchIndex-1)
	if err != nil {
		return rollup.BatchInfo{}, err
	}
	last, err := r.lastBlockOf(ctx, batchIndex)
	if err != nil {
		return rollup.BatchInfo{}, err
	}
	info := rollup.BatchInfo{
		BatchIndex: batchIndex,
		StartBlock: prevLast + 1,
		EndBlock:   last,
	}
	if info.EndBlock <= info.StartBlock {
		return rollup.BatchInfo{}, fmt.Errorf("%w: batch %d spans (%d, %d)", ErrEmptyBlockRange, batchIndex, info.StartBlock, info.EndBlock)
	}
	r.metrics.BatchIndex.Update(int64(batchIndex))
	r.metrics.BlocksLen.Update(int64(info.BlockCount()))
	return info, nil
}

// CountTransactions sums the per-block transaction counts over the inclusive
// block range of info.
func (r *BatchBoundsResolver) CountTransactions(ctx context.Context, info rollup.BatchInfo) (uint64, error) {
	var total uint64
	for number := info.StartBlock; number <= info.EndBlock; number++ {
		count, err := r.l2.BlockTransactionCountByNumber(ctx, number)
		if err != nil {
			return 0, errors.Wrapf(err, "reading transaction count of L2 block %d", number)
		}
		total += count
	}
	r.metrics.TxnLen.Update(int64(total))
	return total, nil
}
