// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"github.com/ethereum/go-ethereum/metrics"
)

// Metrics holds the process wide gauges. They are registered in the registry
// handed to NewMetrics so tests can use a private one.
type Metrics struct {
	BatchIndex    metrics.Gauge
	BlocksLen     metrics.Gauge
	TxnLen        metrics.Gauge
	VerifyResult  metrics.Gauge
	WalletBalance metrics.Gauge
}

func NewMetrics(registry metrics.Registry) *Metrics {
	return &Metrics{
		BatchIndex:    metrics.NewRegisteredGauge("shadow/batch/index", registry),
		BlocksLen:     metrics.NewRegisteredGauge("shadow/blocks/len", registry),
		TxnLen:        metrics.NewRegisteredGauge("shadow/txn/len", registry),
		VerifyResult:  metrics.NewRegisteredGauge("shadow/verify/result", registry),
		WalletBalance: metrics.NewRegisteredGauge("shadow/wallet/balance", registry),
	}
}
