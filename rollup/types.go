// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rollup

import (
	"github.com/ethereum/go-ethereum/common"
)

// BatchInfo identifies a committed batch and the L2 block range it covers.
type BatchInfo struct {
	BatchIndex uint64 `json:"batchIndex"`
	StartBlock uint64 `json:"startBlock"`
	EndBlock   uint64 `json:"endBlock"`
}

// BlockCount is the inclusive number of blocks in the batch.
func (b BatchInfo) BlockCount() uint64 {
	if b.EndBlock < b.StartBlock {
		return 0
	}
	return b.EndBlock - b.StartBlock + 1
}

// CommitmentFields is the shadow rollup's BatchStore.
type CommitmentFields struct {
	PrevStateRoot          common.Hash
	PostStateRoot          common.Hash
	WithdrawalRoot         common.Hash
	DataHash               common.Hash
	BlobVersionedHash      common.Hash
	SequencerSetVerifyHash common.Hash
}

// batchStore is the ABI shape of CommitmentFields.
type batchStore struct {
	PrevStateRoot          [32]byte
	PostStateRoot          [32]byte
	WithdrawalRoot         [32]byte
	DataHash               [32]byte
	BlobVersionedHash      [32]byte
	SequencerSetVerifyHash [32]byte
}

func (f CommitmentFields) batchStore() batchStore {
	return batchStore{
		PrevStateRoot:          f.PrevStateRoot,
		PostStateRoot:          f.PostStateRoot,
		WithdrawalRoot:         f.WithdrawalRoot,
		DataHash:               f.DataHash,
		BlobVersionedHash:      f.BlobVersionedHash,
		SequencerSetVerifyHash: f.SequencerSetVerifyHash,
	}
}

func (s batchStore) commitmentFields() CommitmentFields {
	return CommitmentFields{
		PrevStateRoot:          s.PrevStateRoot,
		PostStateRoot:          s.PostStateRoot,
		WithdrawalRoot:         s.WithdrawalRoot,
		DataHash:               s.DataHash,
		BlobVersionedHash:      s.BlobVersionedHash,
		SequencerSetVerifyHash: s.SequencerSetVerifyHash,
	}
}

// LogContext returns the fields as key/value pairs for structured logging.
func (f CommitmentFields) LogContext() []any {
	return []any{
		"prevStateRoot", f.PrevStateRoot,
		"postStateRoot", f.PostStateRoot,
		"withdrawalRoot", f.WithdrawalRoot,
		"dataHash", f.DataHash,
		"blobVersionedHash", f.BlobVersionedHash,
		"sequencerSetVerifyHash", f.SequencerSetVerifyHash,
	}
}
