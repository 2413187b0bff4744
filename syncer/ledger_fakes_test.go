// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package syncer

import (
	"context"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/shadow-prover/rollup"
	"github.com/offchainlabs/shadow-prover/util/testhelpers"
)

var (
	testRollupAddr       = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testShadowRollupAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
	errUnreachable       = errors.New("connection refused")
)

func TestMain(m *testing.M) {
	// gauges are no-ops unless metrics are enabled before they are created
	metrics.Enabled = true
	os.Exit(m.Run())
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}

// fakeL1 serves the canonical rollup with real ABI encoding.
type fakeL1 struct {
	mutex sync.Mutex

	latest      uint64
	logs        []types.Log
	txs         map[common.Hash]*types.Transaction
	batchBlocks map[uint64]uint64

	blockNumberErr error
	callErr        error
	txErr          error

	queries     []ethereum.FilterQuery
	storeReads  []uint64
	txRequests  []common.Hash
	readsIssued int
}

func newFakeL1(latest uint64) *fakeL1 {
	return &fakeL1{
		latest:      latest,
		txs:         make(map[common.Hash]*types.Transaction),
		batchBlocks: make(map[uint64]uint64),
	}
}

func (l *fakeL1) BlockNumber(ctx context.Context) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.readsIssued++
	return l.latest, l.blockNumberErr
}

func (l *fakeL1) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.readsIssued++
	l.queries = append(l.queries, q)
	var found []types.Log
	for _, lg := range l.logs {
		if q.FromBlock != nil && lg.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && lg.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && lg.Address != q.Addresses[0] {
			continue
		}
		if len(q.Topics) > 0 && len(q.Topics[0]) > 0 && lg.Topics[0] != q.Topics[0][0] {
			continue
		}
		found = append(found, lg)
	}
	return found, nil
}

func (l *fakeL1) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.readsIssued++
	l.txRequests = append(l.txRequests, hash)
	if l.txErr != nil {
		return nil, false, l.txErr
	}
	tx, ok := l.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx, false, nil
}

func (l *fakeL1) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.readsIssued++
	if l.callErr != nil {
		return nil, l.callErr
	}
	if call.To == nil || *call.To != testRollupAddr || rollup.RollupMethodName(call.Data) != "batchDataStore" {
		return nil, errors.New("execution reverted")
	}
	index := new(big.Int).SetBytes(call.Data[4:36]).Uint64()
	l.storeReads = append(l.storeReads, index)
	store := &rollup.BatchDataStore{
		BlockNumber: new(big.Int).SetUint64(l.batchBlocks[index]),
	}
	return rollup.PackBatchDataStoreResult(store)
}

// commitBatch records a canonical commit of batchIndex at l1Block whose
// calldata carries parent as the parent header, and returns its tx hash.
func (l *fakeL1) commitBatch(t *testing.T, l1Block uint64, batchIndex uint64, parent rollup.BatchHeader) common.Hash {
	t.Helper()
	data, err := rollup.PackCommitBatch(&rollup.CommitBatchCall{
		BatchDataInput: rollup.BatchDataInput{
			Version:           1,
			ParentBatchHeader: parent,
			PrevStateRoot:     testhelpers.RandomHash(),
			PostStateRoot:     testhelpers.RandomHash(),
			WithdrawalRoot:    testhelpers.RandomHash(),
		},
	})
	Require(t, err)
	return l.addTx(l1Block, batchIndex, data)
}

func (l *fakeL1) addTx(l1Block uint64, batchIndex uint64, data []byte) common.Hash {
	rollupAddr := testRollupAddr
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(l.txs)),
		To:       &rollupAddr,
		Gas:      1_000_000,
		GasPrice: big.NewInt(1),
		Data:     data,
	})
	l.txs[tx.Hash()] = tx
	l.logs = append(l.logs, types.Log{
		Address:     testRollupAddr,
		Topics:      []common.Hash{rollup.CommitBatchEventID, common.BigToHash(new(big.Int).SetUint64(batchIndex)), testhelpers.RandomHash()},
		BlockNumber: l1Block,
		TxHash:      tx.Hash(),
		Index:       uint(len(l.logs)),
	})
	return tx.Hash()
}

type fakeL2 struct {
	mutex  sync.Mutex
	counts map[uint64]uint64
	err    error
	reads  int
}

func newFakeL2() *fakeL2 {
	return &fakeL2{counts: make(map[uint64]uint64)}
}

func (l *fakeL2) BlockTransactionCountByNumber(ctx context.Context, number uint64) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.reads++
	if l.err != nil {
		return 0, l.err
	}
	return l.counts[number], nil
}

type shadowCommit struct {
	batchIndex uint64
	fields     rollup.CommitmentFields
}

// fakeShadow models the shadow rollup. With proveOnCommit set, a committed
// batch reads as proven afterwards, as it would once the prover finishes.
type fakeShadow struct {
	mutex sync.Mutex

	proven        map[uint64]bool
	proveOnCommit bool
	callErr       error
	sendErr       error
	mineErr       error
	receiptStatus uint64

	commits    []shadowCommit
	proofReads int
}

func newFakeShadow() *fakeShadow {
	return &fakeShadow{
		proven:        make(map[uint64]bool),
		proveOnCommit: true,
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (s *fakeShadow) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.proofReads++
	if s.callErr != nil {
		return nil, s.callErr
	}
	if call.To == nil || *call.To != testShadowRollupAddr || rollup.ShadowMethodName(call.Data) != "isProveSuccess" {
		return nil, errors.New("execution reverted")
	}
	index := new(big.Int).SetBytes(call.Data[4:36]).Uint64()
	return rollup.PackIsProveSuccessResult(s.proven[index])
}

func (s *fakeShadow) SendCall(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if to != testShadowRollupAddr {
		return nil, errors.New("unexpected destination")
	}
	index, fields, err := rollup.UnpackShadowCommitBatch(data)
	if err != nil {
		return nil, err
	}
	s.commits = append(s.commits, shadowCommit{batchIndex: index, fields: fields})
	if s.proveOnCommit && s.receiptStatus == types.ReceiptStatusSuccessful {
		s.proven[index] = true
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(s.commits)),
		To:       &to,
		Gas:      1_000_000,
		GasPrice: big.NewInt(1),
		Data:     data,
	}), nil
}

func (s *fakeShadow) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.mineErr != nil {
		return nil, s.mineErr
	}
	return &types.Receipt{
		Status:      s.receiptStatus,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(len(s.commits))),
		GasUsed:     50_000,
	}, nil
}

type syncerHarness struct {
	l1       *fakeL1
	l2       *fakeL2
	shadow   *fakeShadow
	config   *Config
	registry metrics.Registry
	syncer   *BatchSyncer
}

func newSyncerHarness(latest uint64) *syncerHarness {
	config := TestConfig
	h := &syncerHarness{
		l1:       newFakeL1(latest),
		l2:       newFakeL2(),
		shadow:   newFakeShadow(),
		config:   &config,
		registry: metrics.NewRegistry(),
	}
	h.syncer = NewBatchSyncer(
		func() *Config { return h.config },
		h.l1,
		h.l2,
		h.shadow,
		Addresses{Rollup: testRollupAddr, ShadowRollup: testShadowRollupAddr},
		NewMetrics(h.registry),
	)
	return h
}

func gaugeValue(t *testing.T, registry metrics.Registry, name string) int64 {
	t.Helper()
	gauge, ok := registry.Get(name).(metrics.Gauge)
	if !ok {
		Fail(t, "gauge not registered:", name)
	}
	return gauge.Snapshot().Value()
}

// activeFlag stands in for the replica lock.
type activeFlag struct {
	mutex  sync.Mutex
	active bool
	checks int
}

func (a *activeFlag) AttemptLock(ctx context.Context) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.checks++
	return a.active
}
