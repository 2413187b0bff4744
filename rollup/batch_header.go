// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rollup

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"
)

// Batch header layout. All integers are big-endian.
const (
	headerVersionOffset                = 0
	headerBatchIndexOffset             = 1
	headerL1MessagePoppedOffset        = 9
	headerTotalL1MessagePoppedOffset   = 17
	headerDataHashOffset               = 25
	headerBlobVersionedHashOffset      = 57
	headerPrevStateRootOffset          = 89
	headerPostStateRootOffset          = 121
	headerWithdrawalRootOffset         = 153
	headerSequencerSetVerifyHashOffset = 185
	headerParentBatchHashOffset        = 217
	headerTailOffset                   = 249

	// MinCommitmentHeaderLength is the shortest header that carries every
	// commitment field.
	MinCommitmentHeaderLength = headerParentBatchHashOffset
	// MinHeaderLength is the shortest header that carries the parent batch hash.
	MinHeaderLength = headerTailOffset
)

var ErrHeaderOutOfRange = errors.New("batch header read out of range")

// BatchHeader is a raw encoded batch header. It is untrusted input: every
// accessor bounds checks and fails rather than zero filling.
type BatchHeader []byte

func (h BatchHeader) slice(offset, length int, field string) ([]byte, error) {
	if offset+length > len(h) {
		return nil, fmt.Errorf("%w: %s needs bytes [%d,%d) of a %d byte header", ErrHeaderOutOfRange, field, offset, offset+length, len(h))
	}
	return h[offset : offset+length], nil
}

func (h BatchHeader) hash(offset int, field string) (common.Hash, error) {
	b, err := h.slice(offset, common.HashLength, field)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

func (h BatchHeader) uint64At(offset int, field string) (uint64, error) {
	b, err := h.slice(offset, 8, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (h BatchHeader) Version() (uint8, error) {
	b, err := h.slice(headerVersionOffset, 1, "version")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (h BatchHeader) BatchIndex() (uint64, error) {
	return h.uint64At(headerBatchIndexOffset, "batchIndex")
}

func (h BatchHeader) L1MessagePopped() (uint64, error) {
	return h.uint64At(headerL1MessagePoppedOffset, "l1MessagePopped")
}

func (h BatchHeader) TotalL1MessagePopped() (uint64, error) {
	return h.uint64At(headerTotalL1MessagePoppedOffset, "totalL1MessagePopped")
}

func (h BatchHeader) DataHash() (common.Hash, error) {
	return h.hash(headerDataHashOffset, "dataHash")
}

func (h BatchHeader) BlobVersionedHash() (common.Hash, error) {
	return h.hash(headerBlobVersionedHashOffset, "blobVersionedHash")
}

func (h BatchHeader) PrevStateRoot() (common.Hash, error) {
	return h.hash(headerPrevStateRootOffset, "prevStateRoot")
}

func (h BatchHeader) PostStateRoot() (common.Hash, error) {
	return h.hash(headerPostStateRootOffset, "postStateRoot")
}

func (h BatchHeader) WithdrawalRoot() (common.Hash, error) {
	return h.hash(headerWithdrawalRootOffset, "withdrawalRoot")
}

func (h BatchHeader) SequencerSetVerifyHash() (common.Hash, error) {
	return h.hash(headerSequencerSetVerifyHashOffset, "sequencerSetVerifyHash")
}

func (h BatchHeader) ParentBatchHash() (common.Hash, error) {
	return h.hash(headerParentBatchHashOffset, "parentBatchHash")
}

// SkippedL1MessageBitmap returns the variable-length tail of a version 0 header.
func (h BatchHeader) SkippedL1MessageBitmap() ([]byte, error) {
	if _, err := h.slice(headerTailOffset, 0, "skippedL1MessageBitmap"); err != nil {
		return nil, err
	}
	return h[headerTailOffset:], nil
}

// LastBlockNumber is only present in version 1 headers.
func (h BatchHeader) LastBlockNumber() (uint64, error) {
	version, err := h.Version()
	if err != nil {
		return 0, err
	}
	if version < 1 {
		return 0, fmt.Errorf("%w: lastBlockNumber is absent from version %d headers", ErrHeaderOutOfRange, version)
	}
	return h.uint64At(headerTailOffset, "lastBlockNumber")
}

// CommitmentFields extracts the six fields replayed onto the shadow rollup.
func (h BatchHeader) CommitmentFields() (CommitmentFields, error) {
	if len(h) < MinCommitmentHeaderLength {
		return CommitmentFields{}, fmt.Errorf("%w: header is %d bytes, need at least %d", ErrHeaderOutOfRange, len(h), MinCommitmentHeaderLength)
	}
	var fields CommitmentFields
	var err error
	if fields.PrevStateRoot, err = h.PrevStateRoot(); err != nil {
		return CommitmentFields{}, err
	}
	if fields.PostStateRoot, err = h.PostStateRoot(); err != nil {
		return CommitmentFields{}, err
	}
	if fields.WithdrawalRoot, err = h.WithdrawalRoot(); err != nil {
		return CommitmentFields{}, err
	}
	if fields.DataHash, err = h.DataHash(); err != nil {
		return CommitmentFields{}, err
	}
	if fields.BlobVersionedHash, err = h.BlobVersionedHash(); err != nil {
		return CommitmentFields{}, err
	}
	if fields.SequencerSetVerifyHash, err = h.SequencerSetVerifyHash(); err != nil {
		return CommitmentFields{}, err
	}
	return fields, nil
}

// HeaderFields is the decoded form of a batch header, used to build headers
// for replay fixtures.
type HeaderFields struct {
	Version                uint8
	BatchIndex             uint64
	L1MessagePopped        uint64
	TotalL1MessagePopped   uint64
	Commitment             CommitmentFields
	ParentBatchHash        common.Hash
	SkippedL1MessageBitmap []byte
	LastBlockNumber        uint64
}

// EncodeBatchHeader lays out fields using the batch header format. Version 0
// headers carry the skipped message bitmap as their tail, later versions the
// last block number.
func EncodeBatchHeader(f HeaderFields) BatchHeader {
	tail := 8
	if f.Version == 0 {
		tail = len(f.SkippedL1MessageBitmap)
	}
	h := make([]byte, headerTailOffset+tail)
	h[headerVersionOffset] = f.Version
	binary.BigEndian.PutUint64(h[headerBatchIndexOffset:], f.BatchIndex)
	binary.BigEndian.PutUint64(h[headerL1MessagePoppedOffset:], f.L1MessagePopped)
	binary.BigEndian.PutUint64(h[headerTotalL1MessagePoppedOffset:], f.TotalL1MessagePopped)
	copy(h[headerDataHashOffset:], f.Commitment.DataHash[:])
	copy(h[headerBlobVersionedHashOffset:], f.Commitment.BlobVersionedHash[:])
	copy(h[headerPrevStateRootOffset:], f.Commitment.PrevStateRoot[:])
	copy(h[headerPostStateRootOffset:], f.Commitment.PostStateRoot[:])
	copy(h[headerWithdrawalRootOffset:], f.Commitment.WithdrawalRoot[:])
	copy(h[headerSequencerSetVerifyHashOffset:], f.Commitment.SequencerSetVerifyHash[:])
	copy(h[headerParentBatchHashOffset:], f.ParentBatchHash[:])
	if f.Version == 0 {
		copy(h[headerTailOffset:], f.SkippedL1MessageBitmap)
	} else {
		binary.BigEndian.PutUint64(h[headerTailOffset:], f.LastBlockNumber)
	}
	return h
}
