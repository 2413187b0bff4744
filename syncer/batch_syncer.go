// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package syncer replays batches committed on the canonical rollup onto the
// shadow rollup so they can be proven independently.
package syncer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/rollup"
)

type BatchSyncer struct {
	config    ConfigFetcher
	scanner   *CommitScanner
	bounds    *BatchBoundsResolver
	guard     *AdmissionGuard
	oracle    *ProofStateOracle
	extractor *HeaderExtractor
	committer *ShadowCommitter
	active    ActiveCheck
}

var ErrNotActive = errors.New("replica lost the active lock")

type Addresses struct {
	Rollup       common.Address
	ShadowRollup common.Address
}

// Shadow is everything the syncer needs from the shadow ledger.
type Shadow interface {
	ShadowSubmitter
	ethereum.ContractCaller
}

func NewBatchSyncer(
	config ConfigFetcher,
	l1 L1Reader,
	l2 L2Reader,
	shadow Shadow,
	addrs Addresses,
	m *Metrics,
) *BatchSyncer {
	return &BatchSyncer{
		config:    config,
		scanner:   NewCommitScanner(l1, addrs.Rollup, config),
		bounds:    NewBatchBoundsResolver(l1, l2, addrs.Rollup, m),
		guard:     NewAdmissionGuard(config),
		oracle:    NewProofStateOracle(shadow, addrs.ShadowRollup),
		extractor: NewHeaderExtractor(l1),
		committer: NewShadowCommitter(shadow, addrs.ShadowRollup, config),
	}
}

// SetActiveCheck makes SyncBatch confirm the replica is still the active one
// right before every shadow commit.
func (s *BatchSyncer) SetActiveCheck(active ActiveCheck) {
	s.active = active
}

// SyncBatch runs one cycle. It returns the synced batch, or nil with a nil
// error when there was nothing to do this cycle. Only malformed calldata or
// header bytes produce an error; everything else is retried next cycle.
func (s *BatchSyncer) SyncBatch(ctx context.Context) (*rollup.BatchInfo, error) {
	events, err := s.scanner.Scan(ctx)
	if err != nil {
		log.Warn("failed to scan CommitBatch events", "err", err)
		return nil, nil
	}
	candidate, err := SelectCandidate(events, s.config().MinCommitEvents)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		log.Warn("not enough CommitBatch events in scan window", "found", len(events), "needed", s.config().MinCommitEvents)
		return nil, nil
	}

	info, err := s.bounds.Resolve(ctx, candidate.BatchIndex)
	if err != nil {
		log.Warn("failed to resolve batch block range", "batchIndex", candidate.BatchIndex, "err", err)
		return nil, nil
	}
	// Check the span before counting so an oversized batch costs no L2 reads.
	if err := s.guard.AdmitSpan(info); err != nil {
		log.Warn("batch too large for prover", "err", err)
		return nil, nil
	}
	txns, err := s.bounds.CountTransactions(ctx, info)
	if err != nil {
		log.Warn("failed to count batch transactions", "batchIndex", info.BatchIndex, "err", err)
		return nil, nil
	}
	if err := s.guard.AdmitVolume(info, txns); err != nil {
		log.Warn("batch too large for prover", "err", err)
		return nil, nil
	}
	log.Info("found batch to replay", "batchIndex", info.BatchIndex, "startBlock", info.StartBlock, "endBlock", info.EndBlock, "txns", txns)

	if s.oracle.IsProven(ctx, info.BatchIndex) {
		log.Info("batch already proven on shadow rollup", "batchIndex", info.BatchIndex)
		return nil, nil
	}

	if err := s.replay(ctx, info.BatchIndex, candidate.HeaderTx, s.active); err != nil {
		if IsDecodeError(err) {
			return nil, err
		}
		log.Warn("failed to replay batch", "batchIndex", info.BatchIndex, "err", err)
		return nil, nil
	}
	return &info, nil
}

func (s *BatchSyncer) replay(ctx context.Context, batchIndex uint64, headerTx common.Hash, active ActiveCheck) error {
	fields, header, err := s.extractor.ExtractCommitment(ctx, headerTx)
	if err != nil {
		return err
	}
	headerIndex, err := header.BatchIndex()
	if err != nil {
		return err
	}
	if headerIndex != batchIndex {
		return errors.Wrapf(ErrHeaderIndexMismatch, "header in %v is batch %d, expected %d", headerTx, headerIndex, batchIndex)
	}
	if active != nil && !active.AttemptLock(ctx) {
		return ErrNotActive
	}
	_, err = s.committer.Commit(ctx, batchIndex, fields)
	return err
}

// ReplayBatch commits the header carried by headerTx as batchIndex without
// scanning, resolving bounds or checking proof state. Every failure is
// returned.
func (s *BatchSyncer) ReplayBatch(ctx context.Context, batchIndex uint64, headerTx common.Hash) error {
	if batchIndex == 0 {
		return ErrZeroBatchIndex
	}
	if err := s.replay(ctx, batchIndex, headerTx, nil); err != nil {
		return errors.Wrapf(err, "replaying batch %d from %v", batchIndex, headerTx)
	}
	return nil
}
