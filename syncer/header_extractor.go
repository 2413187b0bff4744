// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/shadow-prover/rollup"
)

var (
	ErrHeaderTxUnavailable = errors.New("header transaction unavailable")
	ErrEmptyCalldata       = errors.New("header transaction has no calldata")
	ErrHeaderIndexMismatch = errors.New("parent header names a different batch")
)

// HeaderExtractor recovers a batch header from the calldata of the commit
// transaction that names it as parent.
type HeaderExtractor struct {
	l1 L1Reader
}

func NewHeaderExtractor(l1 L1Reader) *HeaderExtractor {
	return &HeaderExtractor{l1: l1}
}

// Extract returns the raw parent batch header carried by txHash.
func (e *HeaderExtractor) Extract(ctx context.Context, txHash common.Hash) (rollup.BatchHeader, error) {
	tx, _, err := e.l1.TransactionByHash(ctx, txHash)
	if err != nil {
		return nil, errors.Wrapf(ErrHeaderTxUnavailable, "%v: %v", txHash, err)
	}
	if tx == nil {
		return nil, errors.Wrapf(ErrHeaderTxUnavailable, "%v not found", txHash)
	}
	if len(tx.Data()) == 0 {
		return nil, errors.Wrapf(ErrEmptyCalldata, "%v", txHash)
	}
	call, err := rollup.UnpackCommitBatch(tx.Data())
	if err != nil {
		return nil, errors.Wrapf(err, "decoding calldata of %v", txHash)
	}
	return call.BatchDataInput.ParentBatchHeader, nil
}

// ExtractCommitment is Extract followed by decoding the commitment fields.
func (e *HeaderExtractor) ExtractCommitment(ctx context.Context, txHash common.Hash) (rollup.CommitmentFields, rollup.BatchHeader, error) {
	header, err := e.Extract(ctx, txHash)
	if err != nil {
		return rollup.CommitmentFields{}, nil, err
	}
	fields, err := header.CommitmentFields()
	if err != nil {
		return rollup.CommitmentFields{}, header, errors.Wrapf(err, "parent header in %v", txHash)
	}
	return fields, header, nil
}

// IsDecodeError reports whether err came from malformed calldata or header
// bytes, as opposed to an unreachable ledger.
func IsDecodeError(err error) bool {
	return errors.Is(err, rollup.ErrUnexpectedCall) ||
		errors.Is(err, rollup.ErrHeaderOutOfRange) ||
		errors.Is(err, ErrHeaderIndexMismatch)
}
