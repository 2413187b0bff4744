// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/shadow-prover/cmd/genericconf"
	"github.com/offchainlabs/shadow-prover/cmd/util/confighelpers"
	"github.com/offchainlabs/shadow-prover/prover"
	"github.com/offchainlabs/shadow-prover/syncer"
	"github.com/offchainlabs/shadow-prover/util/redislock"
	"github.com/offchainlabs/shadow-prover/util/rpcclient"
)

type ReplayConfig struct {
	TxHash     string `koanf:"tx-hash"`
	BatchIndex uint64 `koanf:"batch-index"`
}

func (c *ReplayConfig) Enabled() bool {
	return c.TxHash != ""
}

var ReplayConfigDefault = ReplayConfig{}

func ReplayConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".tx-hash", ReplayConfigDefault.TxHash, "replay the batch header committed by this L1 transaction onto the shadow rollup, then exit")
	f.Uint64(prefix+".batch-index", ReplayConfigDefault.BatchIndex, "batch index to commit the replayed header under")
}

type ShadowProverConfig struct {
	Conf genericconf.ConfConfig `koanf:"conf"`

	LogLevel    string                        `koanf:"log-level"`
	LogType     string                        `koanf:"log-type"`
	FileLogging genericconf.FileLoggingConfig `koanf:"file-logging"`

	Metrics       bool                            `koanf:"metrics"`
	MetricsServer genericconf.MetricsServerConfig `koanf:"metrics-server"`
	PProf         bool                            `koanf:"pprof"`
	PprofCfg      genericconf.PProf               `koanf:"pprof-cfg"`

	L1     rpcclient.ClientConfig `koanf:"l1"`
	L2     rpcclient.ClientConfig `koanf:"l2"`
	Shadow rpcclient.ClientConfig `koanf:"shadow"`

	RollupAddress       string                   `koanf:"rollup-address"`
	ShadowRollupAddress string                   `koanf:"shadow-rollup-address"`
	Wallet              genericconf.WalletConfig `koanf:"wallet"`

	Interval time.Duration    `koanf:"interval"`
	Syncer   syncer.Config    `koanf:"syncer"`
	Prover   prover.Config    `koanf:"prover"`
	Lock     redislock.Config `koanf:"lock"`
	Replay   ReplayConfig     `koanf:"replay"`
}

var ShadowProverConfigDefault = ShadowProverConfig{
	Conf:          genericconf.ConfConfigDefault,
	LogLevel:      "INFO",
	LogType:       "plaintext",
	FileLogging:   genericconf.DefaultFileLoggingConfig,
	Metrics:       false,
	MetricsServer: genericconf.MetricsServerConfigDefault,
	PProf:         false,
	PprofCfg:      genericconf.PProfDefault,
	L1:            rpcclient.DefaultClientConfig,
	L2:            rpcclient.DefaultClientConfig,
	Shadow:        rpcclient.DefaultClientConfig,
	Wallet:        genericconf.WalletConfigDefault,
	Interval:      12 * time.Second,
	Syncer:        syncer.DefaultConfig,
	Prover:        prover.DefaultConfig,
	Lock:          redislock.DefaultConfig,
	Replay:        ReplayConfigDefault,
}

func ShadowProverConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)

	f.String("log-level", ShadowProverConfigDefault.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", ShadowProverConfigDefault.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)

	f.Bool("metrics", ShadowProverConfigDefault.Metrics, "enable metrics")
	genericconf.MetricsServerAddOptions("metrics-server", f)
	f.Bool("pprof", ShadowProverConfigDefault.PProf, "enable pprof")
	genericconf.PProfAddOptions("pprof-cfg", f)

	rpcclient.RPCClientAddOptions("l1", f, &ShadowProverConfigDefault.L1)
	rpcclient.RPCClientAddOptions("l2", f, &ShadowProverConfigDefault.L2)
	rpcclient.RPCClientAddOptions("shadow", f, &ShadowProverConfigDefault.Shadow)

	f.String("rollup-address", ShadowProverConfigDefault.RollupAddress, "address of the canonical rollup contract on L1")
	f.String("shadow-rollup-address", ShadowProverConfigDefault.ShadowRollupAddress, "address of the shadow rollup contract on the shadow chain")
	genericconf.WalletConfigAddOptions("wallet", f, "")

	f.Duration("interval", ShadowProverConfigDefault.Interval, "time between sync cycles")
	syncer.ConfigAddOptions("syncer", f)
	prover.ConfigAddOptions("prover", f)
	redislock.ConfigAddOptions("lock", f)
	ReplayConfigAddOptions("replay", f)
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s %q is not a valid address", name, value)
	}
	return common.HexToAddress(value), nil
}

func (c *ShadowProverConfig) Addresses() (syncer.Addresses, error) {
	rollupAddr, err := parseAddress("rollup-address", c.RollupAddress)
	if err != nil {
		return syncer.Addresses{}, err
	}
	shadowAddr, err := parseAddress("shadow-rollup-address", c.ShadowRollupAddress)
	if err != nil {
		return syncer.Addresses{}, err
	}
	return syncer.Addresses{Rollup: rollupAddr, ShadowRollup: shadowAddr}, nil
}

func (c *ShadowProverConfig) Validate() error {
	if err := c.L1.Validate(); err != nil {
		return fmt.Errorf("l1: %w", err)
	}
	if err := c.Shadow.Validate(); err != nil {
		return fmt.Errorf("shadow: %w", err)
	}
	if _, err := c.Addresses(); err != nil {
		return err
	}
	if err := c.Wallet.Validate(); err != nil {
		return err
	}
	if err := c.Syncer.Validate(); err != nil {
		return err
	}
	if c.Replay.Enabled() {
		if len(common.FromHex(c.Replay.TxHash)) != common.HashLength {
			return fmt.Errorf("replay.tx-hash %q is not a transaction hash", c.Replay.TxHash)
		}
		return nil
	}
	if err := c.L2.Validate(); err != nil {
		return fmt.Errorf("l2: %w", err)
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if err := c.Prover.Validate(); err != nil {
		return err
	}
	return c.Lock.Validate()
}

func ParseShadowProver(args []string) (*ShadowProverConfig, error) {
	f := flag.NewFlagSet("", flag.ContinueOnError)
	ShadowProverConfigAddOptions(f)

	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}

	var config ShadowProverConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return nil, err
	}

	// Don't print wallet secrets
	if config.Conf.Dump {
		err = confighelpers.DumpConfig(k, map[string]interface{}{
			"wallet.password":    "",
			"wallet.private-key": "",
		})
		if err != nil {
			return nil, err
		}
		return &config, nil
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
