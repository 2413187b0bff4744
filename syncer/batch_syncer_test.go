// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/rollup"
	"github.com/offchainlabs/shadow-prover/util/testhelpers"
)

func randomCommitment() rollup.CommitmentFields {
	return rollup.CommitmentFields{
		PrevStateRoot:          testhelpers.RandomHash(),
		PostStateRoot:          testhelpers.RandomHash(),
		WithdrawalRoot:         testhelpers.RandomHash(),
		DataHash:               testhelpers.RandomHash(),
		BlobVersionedHash:      testhelpers.RandomHash(),
		SequencerSetVerifyHash: testhelpers.RandomHash(),
	}
}

func headerOf(batchIndex uint64, fields rollup.CommitmentFields) rollup.BatchHeader {
	return rollup.EncodeBatchHeader(rollup.HeaderFields{
		Version:    1,
		BatchIndex: batchIndex,
		Commitment: fields,
	})
}

// seedBatches commits batches 41, 42 and 43 at L1 blocks 100, 150 and 200.
// Batch 42 covers L2 blocks [1000001, lastBlock] holding one transaction.
func (h *syncerHarness) seedBatches(t *testing.T, lastBlock uint64) rollup.CommitmentFields {
	t.Helper()
	commitment42 := randomCommitment()
	h.l1.commitBatch(t, 100, 41, headerOf(40, randomCommitment()))
	h.l1.commitBatch(t, 150, 42, headerOf(41, randomCommitment()))
	h.l1.commitBatch(t, 200, 43, headerOf(42, commitment42))
	h.l1.batchBlocks[41] = 1000000
	h.l1.batchBlocks[42] = lastBlock
	h.l2.counts[1000001] = 1
	return commitment42
}

func TestSyncBatchReplaysCandidate(t *testing.T) {
	h := newSyncerHarness(300)
	commitment := h.seedBatches(t, 1000002)

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	if info == nil {
		Fail(t, "expected batch to be synced")
	}
	if diff := cmp.Diff(rollup.BatchInfo{BatchIndex: 42, StartBlock: 1000001, EndBlock: 1000002}, *info); diff != "" {
		Fail(t, "unexpected batch info (-want +got):\n", diff)
	}
	require.Len(t, h.shadow.commits, 1)
	require.Equal(t, uint64(42), h.shadow.commits[0].batchIndex)
	if diff := cmp.Diff(commitment, h.shadow.commits[0].fields); diff != "" {
		Fail(t, "unexpected commitment (-want +got):\n", diff)
	}
	require.Equal(t, []uint64{41, 42}, h.l1.storeReads)
	require.Equal(t, 2, h.l2.reads)
	// the header comes from the commit at block 200
	require.Len(t, h.l1.txRequests, 1)
	require.Equal(t, h.l1.logs[2].TxHash, h.l1.txRequests[0])
}

func TestSyncBatchIsIdempotent(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.NotNil(t, info)

	info, err = h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Len(t, h.shadow.commits, 1)
}

func TestSyncBatchSkipsProvenBatch(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	h.shadow.proven[42] = true

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)
	require.Empty(t, h.l1.txRequests)
}

func TestSyncBatchTreatsUnreadableProofStateAsProven(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	h.shadow.callErr = errUnreachable

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)
}

func TestSyncBatchRejectsOversizedSpan(t *testing.T) {
	h := newSyncerHarness(300)
	// 1000001..1000301 is 301 blocks
	h.seedBatches(t, 1000301)

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)
	require.Zero(t, h.l2.reads)
	require.Zero(t, h.shadow.proofReads)

	// exactly at the limit is admitted
	h.l1.batchBlocks[42] = 1000300
	info, err = h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.NotNil(t, info)
	require.Equal(t, uint64(300), info.BlockCount())
}

func TestSyncBatchRejectsOversizedVolume(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	h.l2.counts[1000002] = 600

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)

	h.config.MaxTxns = 601
	info, err = h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.NotNil(t, info)
}

func TestSyncBatchNeedsEnoughEvents(t *testing.T) {
	logs := testhelpers.InitTestLog(t, log.LevelInfo)
	h := newSyncerHarness(300)
	h.l1.commitBatch(t, 150, 42, headerOf(41, randomCommitment()))
	h.l1.commitBatch(t, 200, 43, headerOf(42, randomCommitment()))

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.True(t, logs.WasLogged("not enough CommitBatch events"))
	// only the block number and the log filter
	require.Equal(t, 2, h.l1.readsIssued)
	require.Zero(t, h.l2.reads)
	require.Zero(t, h.shadow.proofReads)
	require.Empty(t, h.shadow.commits)
}

func TestSyncBatchEmptyRange(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000001)

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)
	require.Zero(t, h.l2.reads)
}

func TestSyncBatchTransientFailuresAreNoOps(t *testing.T) {
	cases := []struct {
		name  string
		setup func(h *syncerHarness)
	}{
		{"block number", func(h *syncerHarness) { h.l1.blockNumberErr = errUnreachable }},
		{"batch store", func(h *syncerHarness) { h.l1.callErr = errUnreachable }},
		{"l2 counts", func(h *syncerHarness) { h.l2.err = errUnreachable }},
		{"header tx", func(h *syncerHarness) { h.l1.txErr = errUnreachable }},
		{"submit", func(h *syncerHarness) { h.shadow.sendErr = errUnreachable }},
		{"receipt", func(h *syncerHarness) { h.shadow.mineErr = context.DeadlineExceeded }},
		{"reverted", func(h *syncerHarness) { h.shadow.receiptStatus = types.ReceiptStatusFailed }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newSyncerHarness(300)
			h.seedBatches(t, 1000002)
			tc.setup(h)
			info, err := h.syncer.SyncBatch(context.Background())
			Require(t, err)
			require.Nil(t, info)
		})
	}
}

func TestSyncBatchMissingHeaderTx(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	delete(h.l1.txs, h.l1.logs[2].TxHash)

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)
}

func TestSyncBatchEmptyCalldata(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	h.l1.logs = h.l1.logs[:2]
	h.l1.addTx(200, 43, nil)

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)
}

func TestSyncBatchDecodeErrorsAbortCycle(t *testing.T) {
	t.Run("short header", func(t *testing.T) {
		h := newSyncerHarness(300)
		h.seedBatches(t, 1000002)
		h.l1.logs = h.l1.logs[:2]
		h.l1.commitBatch(t, 200, 43, headerOf(42, randomCommitment())[:216])

		info, err := h.syncer.SyncBatch(context.Background())
		require.ErrorIs(t, err, rollup.ErrHeaderOutOfRange)
		require.Nil(t, info)
		require.Empty(t, h.shadow.commits)
	})
	t.Run("foreign calldata", func(t *testing.T) {
		h := newSyncerHarness(300)
		h.seedBatches(t, 1000002)
		h.l1.logs = h.l1.logs[:2]
		h.l1.addTx(200, 43, []byte{0xde, 0xad, 0xbe, 0xef, 0x01})

		info, err := h.syncer.SyncBatch(context.Background())
		require.ErrorIs(t, err, rollup.ErrUnexpectedCall)
		require.True(t, IsDecodeError(err))
		require.Nil(t, info)
	})
}

func TestSyncBatchZeroCandidate(t *testing.T) {
	h := newSyncerHarness(300)
	h.l1.commitBatch(t, 100, 0, headerOf(0, randomCommitment()))
	h.l1.commitBatch(t, 150, 0, headerOf(0, randomCommitment()))
	h.l1.commitBatch(t, 200, 1, headerOf(0, randomCommitment()))

	info, err := h.syncer.SyncBatch(context.Background())
	require.ErrorIs(t, err, ErrZeroBatchIndex)
	require.Nil(t, info)
	require.Empty(t, h.l1.storeReads)
}

func TestReplayBatch(t *testing.T) {
	h := newSyncerHarness(300)
	commitment := h.seedBatches(t, 1000002)
	// proof state is ignored when replaying by hand
	h.shadow.proven[42] = true

	err := h.syncer.ReplayBatch(context.Background(), 42, h.l1.logs[2].TxHash)
	Require(t, err)
	require.Len(t, h.shadow.commits, 1)
	require.Equal(t, commitment, h.shadow.commits[0].fields)

	h.shadow.sendErr = errUnreachable
	err = h.syncer.ReplayBatch(context.Background(), 42, h.l1.logs[2].TxHash)
	require.ErrorIs(t, err, errUnreachable)

	require.ErrorIs(t, h.syncer.ReplayBatch(context.Background(), 0, h.l1.logs[2].TxHash), ErrZeroBatchIndex)
}

func TestSyncBatchUpdatesGauges(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	h.l2.counts[1000002] = 2

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.NotNil(t, info)
	require.Equal(t, int64(42), gaugeValue(t, h.registry, "shadow/batch/index"))
	require.Equal(t, int64(2), gaugeValue(t, h.registry, "shadow/blocks/len"))
	require.Equal(t, int64(3), gaugeValue(t, h.registry, "shadow/txn/len"))
}

func TestSyncBatchRejectsHeaderOfAnotherBatch(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	h.l1.logs = h.l1.logs[:2]
	h.l1.commitBatch(t, 200, 43, headerOf(40, randomCommitment()))

	info, err := h.syncer.SyncBatch(context.Background())
	require.ErrorIs(t, err, ErrHeaderIndexMismatch)
	require.True(t, IsDecodeError(err))
	require.Nil(t, info)
	require.Empty(t, h.shadow.commits)

	err = h.syncer.ReplayBatch(context.Background(), 42, h.l1.logs[2].TxHash)
	require.ErrorIs(t, err, ErrHeaderIndexMismatch)
	require.Empty(t, h.shadow.commits)
}

func TestSyncBatchChecksActiveBeforeCommit(t *testing.T) {
	h := newSyncerHarness(300)
	h.seedBatches(t, 1000002)
	active := &activeFlag{}
	h.syncer.SetActiveCheck(active)

	info, err := h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.Nil(t, info)
	require.Equal(t, 1, active.checks)
	require.Len(t, h.l1.txRequests, 1)
	require.Empty(t, h.shadow.commits)

	active.active = true
	info, err = h.syncer.SyncBatch(context.Background())
	Require(t, err)
	require.NotNil(t, info)
	require.Equal(t, 2, active.checks)
	require.Len(t, h.shadow.commits, 1)

	// replaying by hand does not consult the lock
	Require(t, h.syncer.ReplayBatch(context.Background(), 42, h.l1.logs[2].TxHash))
	require.Equal(t, 2, active.checks)
}
