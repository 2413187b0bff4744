// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/rollup"
)

// ProofStateOracle reads isProveSuccess from the shadow rollup.
type ProofStateOracle struct {
	caller       ethereum.ContractCaller
	shadowRollup common.Address
}

func NewProofStateOracle(caller ethereum.ContractCaller, shadowRollup common.Address) *ProofStateOracle {
	return &ProofStateOracle{
		caller:       caller,
		shadowRollup: shadowRollup,
	}
}

// IsProven reports whether the batch was already proven on the shadow
// rollup. A failed read counts as proven so that nothing is replayed on
// unknown state.
func (o *ProofStateOracle) IsProven(ctx context.Context, batchIndex uint64) bool {
	data, err := rollup.PackIsProveSuccess(batchIndex)
	if err != nil {
		log.Error("failed to pack isProveSuccess", "batchIndex", batchIndex, "err", err)
		return true
	}
	to := o.shadowRollup
	result, err := o.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		log.Warn("failed to read shadow proof state", "batchIndex", batchIndex, "err", err)
		return true
	}
	proven, err := rollup.UnpackIsProveSuccess(result)
	if err != nil {
		log.Warn("failed to decode shadow proof state", "batchIndex", batchIndex, "err", err)
		return true
	}
	return proven
}
