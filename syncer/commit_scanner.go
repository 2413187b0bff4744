// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"cmp"
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/shadow-prover/rollup"
)

var ErrZeroBatchIndex = errors.New("candidate batch index is zero")

// CommitEvent is a CommitBatch log seen in the scan window.
type CommitEvent struct {
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
	BatchIndex  uint64
}

// Candidate is the batch chosen for replay in this cycle together with the
// transaction whose calldata carries its header.
type Candidate struct {
	BatchIndex uint64
	HeaderTx   common.Hash
}

type CommitScanner struct {
	l1     L1Reader
	rollup common.Address
	config ConfigFetcher
}

func NewCommitScanner(l1 L1Reader, rollupAddr common.Address, config ConfigFetcher) *CommitScanner {
	return &CommitScanner{
		l1:     l1,
		rollup: rollupAddr,
		config: config,
	}
}

// Scan returns the CommitBatch events of the last scan-window blocks sorted
// by position.
func (s *CommitScanner) Scan(ctx context.Context) ([]CommitEvent, error) {
	latest, err := s.l1.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading L1 block number")
	}
	from := uint64(1)
	if window := s.config().ScanWindow; latest > window {
		from = latest - window
	}
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(latest),
		Addresses: []common.Address{s.rollup},
		Topics:    [][]common.Hash{{rollup.CommitBatchEventID}},
	}
	logs, err := s.l1.FilterLogs(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "filtering CommitBatch logs in [%d,%d]", from, latest)
	}
	events := make([]CommitEvent, 0, len(logs))
	for _, l := range logs {
		event, err := parseCommitEvent(l)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	slices.SortStableFunc(events, func(a, b CommitEvent) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.LogIndex, b.LogIndex)
	})
	return events, nil
}

func parseCommitEvent(l types.Log) (CommitEvent, error) {
	if len(l.Topics) < 2 || l.Topics[0] != rollup.CommitBatchEventID {
		return CommitEvent{}, fmt.Errorf("log %v of tx %v is not a CommitBatch event", l.Index, l.TxHash)
	}
	index := new(uint256.Int).SetBytes32(l.Topics[1][:])
	if !index.IsUint64() {
		return CommitEvent{}, fmt.Errorf("CommitBatch index %v in tx %v does not fit in 64 bits", index, l.TxHash)
	}
	return CommitEvent{
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
		TxHash:      l.TxHash,
		BatchIndex:  index.Uint64(),
	}, nil
}

// SelectCandidate picks the second to last event's batch. The last event is
// the commit of the following batch, whose calldata embeds the candidate's
// header as its parent. Returns nil when there are fewer than minEvents.
func SelectCandidate(events []CommitEvent, minEvents uint64) (*Candidate, error) {
	if len(events) == 0 || uint64(len(events)) < minEvents || len(events) < 2 {
		return nil, nil
	}
	last := events[len(events)-1]
	candidate := events[len(events)-2]
	if candidate.BatchIndex == 0 {
		return nil, fmt.Errorf("%w: event in tx %v", ErrZeroBatchIndex, candidate.TxHash)
	}
	return &Candidate{
		BatchIndex: candidate.BatchIndex,
		HeaderTx:   last.TxHash,
	}, nil
}
