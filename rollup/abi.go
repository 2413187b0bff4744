// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rollup

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// RollupABI is the subset of the canonical rollup contract used to discover
// and decode committed batches.
const RollupABI = `[
	{"anonymous":false,"inputs":[
		{"indexed":true,"internalType":"uint256","name":"batchIndex","type":"uint256"},
		{"indexed":true,"internalType":"bytes32","name":"batchHash","type":"bytes32"}
	],"name":"CommitBatch","type":"event"},
	{"inputs":[
		{"components":[
			{"internalType":"uint8","name":"version","type":"uint8"},
			{"internalType":"bytes","name":"parentBatchHeader","type":"bytes"},
			{"internalType":"bytes","name":"blockContexts","type":"bytes"},
			{"internalType":"bytes","name":"skippedL1MessageBitmap","type":"bytes"},
			{"internalType":"bytes32","name":"prevStateRoot","type":"bytes32"},
			{"internalType":"bytes32","name":"postStateRoot","type":"bytes32"},
			{"internalType":"bytes32","name":"withdrawalRoot","type":"bytes32"}
		],"internalType":"struct IRollup.BatchDataInput","name":"batchDataInput","type":"tuple"},
		{"components":[
			{"internalType":"uint256","name":"signedSequencersBitmap","type":"uint256"},
			{"internalType":"bytes","name":"sequencerSets","type":"bytes"},
			{"internalType":"bytes","name":"signature","type":"bytes"}
		],"internalType":"struct IRollup.BatchSignatureInput","name":"batchSignatureInput","type":"tuple"}
	],"name":"commitBatch","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"batchDataStore","outputs":[
		{"internalType":"uint256","name":"originTimestamp","type":"uint256"},
		{"internalType":"uint256","name":"finalizeTimestamp","type":"uint256"},
		{"internalType":"uint256","name":"blockNumber","type":"uint256"},
		{"internalType":"uint256","name":"signedSequencersBitmap","type":"uint256"}
	],"stateMutability":"view","type":"function"}
]`

// ShadowRollupABI is the subset of the shadow rollup contract this service
// writes to and reads proof state from.
const ShadowRollupABI = `[
	{"inputs":[
		{"internalType":"uint64","name":"_batchIndex","type":"uint64"},
		{"components":[
			{"internalType":"bytes32","name":"prevStateRoot","type":"bytes32"},
			{"internalType":"bytes32","name":"postStateRoot","type":"bytes32"},
			{"internalType":"bytes32","name":"withdrawalRoot","type":"bytes32"},
			{"internalType":"bytes32","name":"dataHash","type":"bytes32"},
			{"internalType":"bytes32","name":"blobVersionedHash","type":"bytes32"},
			{"internalType":"bytes32","name":"sequencerSetVerifyHash","type":"bytes32"}
		],"internalType":"struct IRollup.BatchStore","name":"_batch","type":"tuple"}
	],"name":"commitBatch","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"isProveSuccess","outputs":[
		{"internalType":"bool","name":"","type":"bool"}
	],"stateMutability":"view","type":"function"}
]`

var (
	rollupABI       abi.ABI
	shadowRollupABI abi.ABI

	// CommitBatchEventID is topic[0] of the canonical rollup's CommitBatch event.
	CommitBatchEventID common.Hash
)

func init() {
	var err error
	rollupABI, err = abi.JSON(strings.NewReader(RollupABI))
	if err != nil {
		panic(err)
	}
	shadowRollupABI, err = abi.JSON(strings.NewReader(ShadowRollupABI))
	if err != nil {
		panic(err)
	}
	CommitBatchEventID = rollupABI.Events["CommitBatch"].ID
}

// BatchDataInput mirrors the first commitBatch argument. Field order must
// follow the ABI tuple.
type BatchDataInput struct {
	Version                uint8
	ParentBatchHeader      []byte
	BlockContexts          []byte
	SkippedL1MessageBitmap []byte
	PrevStateRoot          [32]byte
	PostStateRoot          [32]byte
	WithdrawalRoot         [32]byte
}

type BatchSignatureInput struct {
	SignedSequencersBitmap *big.Int
	SequencerSets          []byte
	Signature              []byte
}

// CommitBatchCall is the decoded calldata of a canonical commitBatch transaction.
type CommitBatchCall struct {
	BatchDataInput      BatchDataInput
	BatchSignatureInput BatchSignatureInput
}

var ErrUnexpectedCall = errors.New("calldata is not a commitBatch call")

// UnpackCommitBatch decodes transaction calldata as a canonical rollup
// commitBatch call.
func UnpackCommitBatch(data []byte) (*CommitBatchCall, error) {
	if len(data) < 4 {
		return nil, errors.Wrapf(ErrUnexpectedCall, "calldata of %d bytes", len(data))
	}
	method, err := rollupABI.MethodById(data[:4])
	if err != nil || method.Name != "commitBatch" {
		return nil, errors.Wrapf(ErrUnexpectedCall, "selector %x", data[:4])
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrap(ErrUnexpectedCall, err.Error())
	}
	var call CommitBatchCall
	if err := method.Inputs.Copy(&call, values); err != nil {
		return nil, errors.Wrap(ErrUnexpectedCall, err.Error())
	}
	return &call, nil
}

// PackCommitBatch encodes a canonical commitBatch call. Used when replaying
// fixtures and in tests.
func PackCommitBatch(call *CommitBatchCall) ([]byte, error) {
	sig := call.BatchSignatureInput
	if sig.SignedSequencersBitmap == nil {
		sig.SignedSequencersBitmap = new(big.Int)
	}
	return rollupABI.Pack("commitBatch", call.BatchDataInput, sig)
}

// PackBatchDataStore encodes the batchDataStore(batchIndex) view call.
func PackBatchDataStore(batchIndex uint64) ([]byte, error) {
	return rollupABI.Pack("batchDataStore", new(big.Int).SetUint64(batchIndex))
}

// BatchDataStore is the on-chain metadata the canonical rollup keeps per batch.
type BatchDataStore struct {
	OriginTimestamp        *big.Int
	FinalizeTimestamp      *big.Int
	BlockNumber            *big.Int
	SignedSequencersBitmap *big.Int
}

func UnpackBatchDataStore(data []byte) (*BatchDataStore, error) {
	values, err := rollupABI.Unpack("batchDataStore", data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(values) != 4 {
		return nil, errors.Errorf("batchDataStore returned %d values", len(values))
	}
	var store BatchDataStore
	fields := []**big.Int{&store.OriginTimestamp, &store.FinalizeTimestamp, &store.BlockNumber, &store.SignedSequencersBitmap}
	for i, field := range fields {
		value, ok := values[i].(*big.Int)
		if !ok {
			return nil, errors.Errorf("batchDataStore value %d has type %T", i, values[i])
		}
		*field = value
	}
	return &store, nil
}

// PackBatchDataStoreResult encodes a batchDataStore return value.
func PackBatchDataStoreResult(store *BatchDataStore) ([]byte, error) {
	orZero := func(x *big.Int) *big.Int {
		if x == nil {
			return new(big.Int)
		}
		return x
	}
	return rollupABI.Methods["batchDataStore"].Outputs.Pack(
		orZero(store.OriginTimestamp),
		orZero(store.FinalizeTimestamp),
		orZero(store.BlockNumber),
		orZero(store.SignedSequencersBitmap),
	)
}

// PackShadowCommitBatch encodes the shadow rollup's commitBatch(batchIndex, BatchStore).
func PackShadowCommitBatch(batchIndex uint64, fields CommitmentFields) ([]byte, error) {
	return shadowRollupABI.Pack("commitBatch", batchIndex, fields.batchStore())
}

// UnpackShadowCommitBatch is the inverse of PackShadowCommitBatch.
func UnpackShadowCommitBatch(data []byte) (uint64, CommitmentFields, error) {
	method := shadowRollupABI.Methods["commitBatch"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return 0, CommitmentFields{}, errors.WithStack(ErrUnexpectedCall)
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return 0, CommitmentFields{}, errors.WithStack(err)
	}
	var args struct {
		BatchIndex uint64
		Batch      batchStore
	}
	if err := method.Inputs.Copy(&args, values); err != nil {
		return 0, CommitmentFields{}, errors.WithStack(err)
	}
	return args.BatchIndex, args.Batch.commitmentFields(), nil
}

func PackIsProveSuccess(batchIndex uint64) ([]byte, error) {
	return shadowRollupABI.Pack("isProveSuccess", new(big.Int).SetUint64(batchIndex))
}

func UnpackIsProveSuccess(data []byte) (bool, error) {
	values, err := shadowRollupABI.Unpack("isProveSuccess", data)
	if err != nil {
		return false, errors.WithStack(err)
	}
	if len(values) != 1 {
		return false, errors.Errorf("isProveSuccess returned %d values", len(values))
	}
	proven, ok := values[0].(bool)
	if !ok {
		return false, errors.Errorf("isProveSuccess returned %T", values[0])
	}
	return proven, nil
}

func PackIsProveSuccessResult(proven bool) ([]byte, error) {
	return shadowRollupABI.Methods["isProveSuccess"].Outputs.Pack(proven)
}

// ShadowMethodName returns the shadow rollup method selected by calldata, or "".
func ShadowMethodName(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	method, err := shadowRollupABI.MethodById(data[:4])
	if err != nil {
		return ""
	}
	return method.Name
}

// RollupMethodName returns the canonical rollup method selected by calldata, or "".
func RollupMethodName(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	method, err := rollupABI.MethodById(data[:4])
	if err != nil {
		return ""
	}
	return method.Name
}
