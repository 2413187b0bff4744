// Copyright 2024-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package ethutil

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type HeadSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// WaitForTx waits for a transaction to be mined and returns its receipt.
// When client can subscribe to new heads (a websocket connection) the
// receipt is checked on every head, otherwise it is polled at pollInterval.
func WaitForTx(ctx context.Context, client ReceiptFetcher, tx *types.Transaction, pollInterval time.Duration) (*types.Receipt, error) {
	subscriber, ok := client.(HeadSubscriber)
	if !ok {
		return pollForReceipt(ctx, client, tx, pollInterval)
	}
	heads := make(chan *types.Header, 1)
	sub, subErr := subscriber.SubscribeNewHead(ctx, heads)
	if subErr != nil {
		return pollForReceipt(ctx, client, tx, pollInterval)
	}
	defer sub.Unsubscribe()

	for {
		receipt, err := client.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-sub.Err():
			if err != nil {
				return nil, errors.Wrap(err, "head subscription error while waiting for tx")
			}
			return nil, errors.New("head subscription closed unexpectedly")
		case <-heads:
		}
	}
}

func pollForReceipt(ctx context.Context, client ReceiptFetcher, tx *types.Transaction, pollInterval time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := client.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
