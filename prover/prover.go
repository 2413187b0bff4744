// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package prover hands synced batches to the proving engine.
package prover

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/rollup"
	"github.com/offchainlabs/shadow-prover/util/rpcclient"
)

type Prover interface {
	Prove(ctx context.Context, batch rollup.BatchInfo) error
}

type Config struct {
	Enable bool                   `koanf:"enable"`
	Client rpcclient.ClientConfig `koanf:"client" reload:"hot"`
}

type ConfigFetcher func() *Config

var DefaultConfig = Config{
	Enable: false,
	Client: rpcclient.DefaultClientConfig,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultConfig.Enable, "hand synced batches to the proving engine (otherwise they are only logged)")
	rpcclient.RPCClientAddOptions(prefix+".client", f, &DefaultConfig.Client)
}

func (c *Config) Validate() error {
	if !c.Enable {
		return nil
	}
	if err := c.Client.Validate(); err != nil {
		return errors.New("prover: " + err.Error())
	}
	return nil
}

// ProveResult is the engine's answer to prover_proveBatch.
type ProveResult struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

var ErrProofRejected = errors.New("proving engine rejected batch")

// RPCProver submits batches to a proving engine over JSON-RPC.
type RPCProver struct {
	client *rpcclient.RpcClient
}

func NewRPCProver(config rpcclient.ClientConfigFetcher) *RPCProver {
	return &RPCProver{client: rpcclient.NewRpcClient(config)}
}

func (p *RPCProver) Start(ctx context.Context) error {
	return p.client.Start(ctx)
}

func (p *RPCProver) Close() {
	p.client.Close()
}

func (p *RPCProver) Prove(ctx context.Context, batch rollup.BatchInfo) error {
	var result ProveResult
	if err := p.client.CallContext(ctx, &result, "prover_proveBatch", batch); err != nil {
		return err
	}
	if !result.Accepted {
		log.Warn("proving engine rejected batch", "batchIndex", batch.BatchIndex, "message", result.Message)
		return ErrProofRejected
	}
	log.Info("batch handed to proving engine", "batchIndex", batch.BatchIndex, "startBlock", batch.StartBlock, "endBlock", batch.EndBlock)
	return nil
}

// NoopProver only logs the hand-off.
type NoopProver struct{}

func (NoopProver) Prove(ctx context.Context, batch rollup.BatchInfo) error {
	log.Info("proving disabled, skipping batch", "batchIndex", batch.BatchIndex, "startBlock", batch.StartBlock, "endBlock", batch.EndBlock)
	return nil
}
