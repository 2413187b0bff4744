// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// L1Reader is the read surface of the ledger hosting the canonical rollup.
type L1Reader interface {
	ethereum.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// L2Reader is the read surface of the execution ledger.
type L2Reader interface {
	BlockTransactionCountByNumber(ctx context.Context, number uint64) (uint64, error)
}

// ShadowSubmitter signs and sends calls to the shadow ledger.
type ShadowSubmitter interface {
	SendCall(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// ActiveCheck reports whether this replica may still write to the shadow
// ledger.
type ActiveCheck interface {
	AttemptLock(ctx context.Context) bool
}
