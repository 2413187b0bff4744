// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package chainclient

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/shadow-prover/util/ethutil"
)

// Transactor signs calls with a single wallet and sends them through Client.
type Transactor struct {
	*Client
	mutex        sync.Mutex
	opts         bind.TransactOpts
	pollInterval func() time.Duration
}

func NewTransactor(client *Client, opts *bind.TransactOpts, pollInterval func() time.Duration) *Transactor {
	return &Transactor{
		Client:       client,
		opts:         *opts,
		pollInterval: pollInterval,
	}
}

func (t *Transactor) From() common.Address {
	return t.opts.From
}

// SendCall signs a transaction calling to with data and submits it. Gas and
// nonce are filled in from the node. It is not retried, a failed submission
// is reported to the caller.
func (t *Transactor) SendCall(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if timeout := t.rpc.Config().Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	opts := t.opts
	opts.Context = ctx
	contract := bind.NewBoundContract(to, abi.ABI{}, t.eth, t.eth, t.eth)
	tx, err := contract.RawTransact(&opts, data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tx, nil
}

// WaitMined blocks until tx has a receipt or ctx is done.
func (t *Transactor) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return ethutil.WaitForTx(ctx, t.Client, tx, t.pollInterval())
}

// Balance is the signer's balance at the latest block.
func (t *Transactor) Balance(ctx context.Context) (*big.Int, error) {
	return t.BalanceAt(ctx, t.opts.From, nil)
}
