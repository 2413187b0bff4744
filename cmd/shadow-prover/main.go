// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"fmt"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/shadow-prover/chainclient"
	"github.com/offchainlabs/shadow-prover/cmd/genericconf"
	"github.com/offchainlabs/shadow-prover/cmd/util"
	"github.com/offchainlabs/shadow-prover/cmd/util/confighelpers"
	"github.com/offchainlabs/shadow-prover/prover"
	"github.com/offchainlabs/shadow-prover/shadowprover"
	"github.com/offchainlabs/shadow-prover/syncer"
	"github.com/offchainlabs/shadow-prover/util/redislock"
	"github.com/offchainlabs/shadow-prover/util/rpcclient"
)

func printSampleUsage(name string) {
	fmt.Printf("\n")
	fmt.Printf("Sample usage: %s --l1.url <rpc> --l2.url <rpc> --shadow.url <rpc> --rollup-address <addr> --shadow-rollup-address <addr> --wallet.private-key <key>\n", name)
	fmt.Printf("Replay one batch: %s ... --replay.tx-hash <hash> --replay.batch-index <index>\n", name)
}

func main() {
	os.Exit(mainImpl())
}

func startClient(ctx context.Context, name string, config *rpcclient.ClientConfig) (*chainclient.Client, error) {
	client := chainclient.NewClient(func() *rpcclient.ClientConfig { return config })
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", name, err)
	}
	return client, nil
}

// Returns the exit code
func mainImpl() int {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	config, err := ParseShadowProver(os.Args[1:])
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}
	if config.Conf.Dump {
		return 0
	}

	err = genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging, genericconf.DefaultPathResolver(""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	defer func() {
		if err := genericconf.CloseLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", err)
		}
	}()

	vcsRevision, vcsTime := confighelpers.GetVersion()
	log.Info("Running shadow prover", "revision", vcsRevision, "vcs.time", vcsTime)

	if err := util.StartMetrics(config.Metrics, config.PProf, &config.MetricsServer, &config.PprofCfg); err != nil {
		log.Error("error starting metrics", "err", err)
		return 1
	}

	addrs, err := config.Addresses()
	if err != nil {
		log.Error("invalid contract address", "err", err)
		return 1
	}

	l1Client, err := startClient(ctx, "l1", &config.L1)
	if err != nil {
		log.Error("failed to start client", "err", err)
		return 1
	}
	defer l1Client.Close()

	shadowClient, err := startClient(ctx, "shadow", &config.Shadow)
	if err != nil {
		log.Error("failed to start client", "err", err)
		return 1
	}
	defer shadowClient.Close()

	shadowChainId, err := shadowClient.ChainID(ctx)
	if err != nil {
		log.Error("failed to read shadow chain id", "err", err)
		return 1
	}
	opts, err := util.OpenWallet("shadow", &config.Wallet, shadowChainId)
	if err != nil {
		log.Error("failed to open wallet", "err", err)
		return 1
	}
	syncerConfig := func() *syncer.Config { return &config.Syncer }
	transactor := chainclient.NewTransactor(shadowClient, opts, func() time.Duration { return config.Syncer.ReceiptPollInterval })

	batchMetrics := syncer.NewMetrics(metrics.DefaultRegistry)

	if config.Replay.Enabled() {
		// l2 is only read while resolving a fresh candidate
		batchSyncer := syncer.NewBatchSyncer(syncerConfig, l1Client, nil, transactor, addrs, batchMetrics)
		txHash := common.HexToHash(config.Replay.TxHash)
		if err := batchSyncer.ReplayBatch(ctx, config.Replay.BatchIndex, txHash); err != nil {
			log.Error("replay failed", "batchIndex", config.Replay.BatchIndex, "tx", txHash, "err", err)
			return 1
		}
		log.Info("replay complete", "batchIndex", config.Replay.BatchIndex, "tx", txHash)
		return 0
	}

	l2Client, err := startClient(ctx, "l2", &config.L2)
	if err != nil {
		log.Error("failed to start client", "err", err)
		return 1
	}
	defer l2Client.Close()

	batchSyncer := syncer.NewBatchSyncer(syncerConfig, l1Client, l2Client, transactor, addrs, batchMetrics)

	var batchProver prover.Prover = prover.NoopProver{}
	if config.Prover.Enable {
		rpcProver := prover.NewRPCProver(func() *rpcclient.ClientConfig { return &config.Prover.Client })
		if err := rpcProver.Start(ctx); err != nil {
			log.Error("failed to connect to proving engine", "err", err)
			return 1
		}
		defer rpcProver.Close()
		batchProver = rpcProver
	}

	lock, err := redislock.NewFromConfig(func() *redislock.Config { return &config.Lock })
	if err != nil {
		log.Error("failed to create lock", "err", err)
		return 1
	}
	defer func() {
		if err := lock.Close(); err != nil {
			log.Warn("failed to close lock", "err", err)
		}
	}()
	lock.Start(ctx)
	defer lock.StopAndWait()
	batchSyncer.SetActiveCheck(lock)

	node := shadowprover.NewNode(
		func() time.Duration { return config.Interval },
		batchSyncer,
		batchProver,
		lock,
		transactor,
		batchMetrics,
	)
	node.Start(ctx)
	log.Info("shadow prover started", "signer", transactor.From(), "rollup", addrs.Rollup, "shadowRollup", addrs.ShadowRollup, "interval", config.Interval)

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint
	log.Info("shutting down because of sigint")

	// cause future ctrl+c's to panic
	close(sigint)

	node.StopAndWait()
	return 0
}
