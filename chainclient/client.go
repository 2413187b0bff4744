// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package chainclient is an ethclient whose every call carries the
// per-call timeout and retry policy of an rpcclient.ClientConfig.
package chainclient

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/offchainlabs/shadow-prover/util/rpcclient"
)

type Client struct {
	rpc *rpcclient.RpcClient
	eth *ethclient.Client
}

func NewClient(config rpcclient.ClientConfigFetcher) *Client {
	return &Client{rpc: rpcclient.NewRpcClient(config)}
}

// Start connects to the endpoint, waiting up to connection-wait for it.
func (c *Client) Start(ctx context.Context) error {
	if err := c.rpc.Start(ctx); err != nil {
		return err
	}
	c.eth = ethclient.NewClient(c.rpc.Client())
	return nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// Eth exposes the raw client for callers that handle their own timeouts.
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

func call[T any](ctx context.Context, c *Client, label string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := c.rpc.Do(ctx, label, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return call(ctx, c, "eth_chainId", c.eth.ChainID)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return call(ctx, c, "eth_blockNumber", c.eth.BlockNumber)
}

func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return call(ctx, c, "eth_getLogs", func(ctx context.Context) ([]types.Log, error) {
		return c.eth.FilterLogs(ctx, q)
	})
}

func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	var isPending bool
	tx, err := call(ctx, c, "eth_getTransactionByHash", func(ctx context.Context) (*types.Transaction, error) {
		tx, pending, err := c.eth.TransactionByHash(ctx, hash)
		isPending = pending
		return tx, err
	})
	return tx, isPending, err
}

func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return call(ctx, c, "eth_getTransactionReceipt", func(ctx context.Context) (*types.Receipt, error) {
		return c.eth.TransactionReceipt(ctx, hash)
	})
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return call(ctx, c, "eth_call", func(ctx context.Context) ([]byte, error) {
		return c.eth.CallContract(ctx, msg, blockNumber)
	})
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return call(ctx, c, "eth_getBalance", func(ctx context.Context) (*big.Int, error) {
		return c.eth.BalanceAt(ctx, account, blockNumber)
	})
}

// BlockTransactionCountByNumber returns the number of transactions in a
// block. ethclient only offers this by block hash.
func (c *Client) BlockTransactionCountByNumber(ctx context.Context, number uint64) (uint64, error) {
	var count *hexutil.Uint
	if err := c.rpc.CallContext(ctx, &count, "eth_getBlockTransactionCountByNumber", hexutil.Uint64(number)); err != nil {
		return 0, err
	}
	if count == nil {
		return 0, errors.Wrapf(ethereum.NotFound, "block %d", number)
	}
	return uint64(*count), nil
}

func (c *Client) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	return c.eth.SubscribeNewHead(ctx, ch)
}
