// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package shadowprover drives the batch syncer on a fixed interval and hands
// every replayed batch to the prover.
package shadowprover

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/offchainlabs/shadow-prover/prover"
	"github.com/offchainlabs/shadow-prover/rollup"
	"github.com/offchainlabs/shadow-prover/syncer"
	"github.com/offchainlabs/shadow-prover/util/stopwaiter"
)

type BatchSyncer interface {
	SyncBatch(ctx context.Context) (*rollup.BatchInfo, error)
}

type ActiveLock interface {
	AttemptLock(ctx context.Context) bool
	Release(ctx context.Context)
}

type BalanceReader interface {
	Balance(ctx context.Context) (*big.Int, error)
}

type Node struct {
	stopwaiter.StopWaiter
	interval func() time.Duration
	syncer   BatchSyncer
	prover   prover.Prover
	lock     ActiveLock
	wallet   BalanceReader
	metrics  *syncer.Metrics
}

// NewNode wires a node. lock and wallet may be nil.
func NewNode(
	interval func() time.Duration,
	batchSyncer BatchSyncer,
	batchProver prover.Prover,
	lock ActiveLock,
	wallet BalanceReader,
	m *syncer.Metrics,
) *Node {
	return &Node{
		interval: interval,
		syncer:   batchSyncer,
		prover:   batchProver,
		lock:     lock,
		wallet:   wallet,
		metrics:  m,
	}
}

func (n *Node) Start(ctx context.Context) {
	n.StopWaiter.Start(ctx, n)
	n.CallIteratively(func(ctx context.Context) time.Duration {
		n.RunCycle(ctx)
		return n.interval()
	})
}

func (n *Node) StopAndWait() {
	n.StopWaiter.StopAndWait()
	if n.lock != nil {
		// the stopwaiter context is already cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n.lock.Release(ctx)
	}
}

func (n *Node) updateBalance(ctx context.Context) {
	if n.wallet == nil {
		return
	}
	balance, err := n.wallet.Balance(ctx)
	if err != nil {
		log.Warn("failed to read signer balance", "err", err)
		return
	}
	gwei := new(big.Int).Div(balance, big.NewInt(params.GWei))
	if !gwei.IsInt64() {
		log.Warn("signer balance does not fit the balance gauge", "wei", balance)
		return
	}
	n.metrics.WalletBalance.Update(gwei.Int64())
}

// RunCycle performs one sync and prove pass. It returns the batch that was
// synced, if any. Errors are logged and never stop the node.
func (n *Node) RunCycle(ctx context.Context) *rollup.BatchInfo {
	n.updateBalance(ctx)
	if n.lock != nil && !n.lock.AttemptLock(ctx) {
		log.Debug("another replica is active, skipping cycle")
		return nil
	}
	batch, err := n.syncer.SyncBatch(ctx)
	if err != nil {
		log.Error("shadow proving cycle failed", "err", err)
		return nil
	}
	if batch == nil {
		return nil
	}
	if err := n.prover.Prove(ctx, *batch); err != nil {
		n.metrics.VerifyResult.Update(0)
		log.Error("failed to prove batch", "batchIndex", batch.BatchIndex, "err", err)
		return batch
	}
	n.metrics.VerifyResult.Update(1)
	return batch
}
