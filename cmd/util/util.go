// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"fmt"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"

	"github.com/offchainlabs/shadow-prover/cmd/genericconf"
)

// StartMetrics serves the metrics registry and pprof when enabled. They
// may not share an address.
func StartMetrics(enableMetrics bool, enablePProf bool, metricsServer *genericconf.MetricsServerConfig, pprofConfig *genericconf.PProf) error {
	mAddr := fmt.Sprintf("%v:%v", metricsServer.Addr, metricsServer.Port)
	pAddr := fmt.Sprintf("%v:%v", pprofConfig.Addr, pprofConfig.Port)
	if enableMetrics && !metrics.Enabled {
		return fmt.Errorf("metrics must be enabled via command line by adding --metrics, json config has no effect")
	}
	if enableMetrics && enablePProf && mAddr == pAddr {
		return fmt.Errorf("metrics and pprof cannot be enabled on the same address:port: %s", mAddr)
	}
	if enableMetrics {
		go metrics.CollectProcessMetrics(metricsServer.UpdateInterval)
		exp.Setup(mAddr)
	}
	if enablePProf {
		genericconf.StartPprof(pAddr)
	}
	return nil
}
