// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package chainclient

import (
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/offchainlabs/shadow-prover/util/rpcclient"
	"github.com/offchainlabs/shadow-prover/util/testhelpers"
)

const testChainID = 1337

// fakeEthService answers the subset of the eth namespace the clients use.
type fakeEthService struct {
	mutex sync.Mutex

	height       uint64
	txCounts     map[uint64]uint
	flakyCalls   int
	balance      *big.Int
	callResult   hexutil.Bytes
	nonce        uint64
	sent         []*types.Transaction
	receiptAfter int
	receiptPolls int
}

func (s *fakeEthService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(testChainID))
}

func (s *fakeEthService) BlockNumber() (hexutil.Uint64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.flakyCalls > 0 {
		s.flakyCalls--
		return 0, errors.New("connection reset by peer")
	}
	return hexutil.Uint64(s.height), nil
}

func (s *fakeEthService) GetBlockTransactionCountByNumber(number hexutil.Uint64) *hexutil.Uint {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	count, ok := s.txCounts[uint64(number)]
	if !ok {
		return nil
	}
	result := hexutil.Uint(count)
	return &result
}

func (s *fakeEthService) GetBalance(account common.Address, block string) *hexutil.Big {
	return (*hexutil.Big)(s.balance)
}

func (s *fakeEthService) Call(args map[string]interface{}, block string) hexutil.Bytes {
	return s.callResult
}

func (s *fakeEthService) GetTransactionCount(account common.Address, block string) hexutil.Uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return hexutil.Uint64(s.nonce)
}

func (s *fakeEthService) SendRawTransaction(encoded hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(encoded); err != nil {
		return common.Hash{}, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sent = append(s.sent, tx)
	s.nonce++
	return tx.Hash(), nil
}

func (s *fakeEthService) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.receiptPolls++
	if s.receiptPolls <= s.receiptAfter {
		return nil
	}
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: big.NewInt(int64(s.height)),
		Logs:        []*types.Log{},
		GasUsed:     21000,
	}
}

func startFakeEth(t *testing.T, service *fakeEthService) (*Client, *rpcclient.ClientConfig) {
	server := rpc.NewServer()
	Require(t, server.RegisterName("eth", service))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})
	config := rpcclient.TestClientConfig
	config.URL = httpServer.URL
	config.RetryErrors = ".*connection reset by peer"
	client := NewClient(func() *rpcclient.ClientConfig { return &config })
	Require(t, client.Start(context.Background()))
	t.Cleanup(client.Close)
	return client, &config
}

func TestClientReads(t *testing.T) {
	service := &fakeEthService{
		height:     1234,
		txCounts:   map[uint64]uint{1000001: 7},
		balance:    big.NewInt(5_000_000_000),
		callResult: hexutil.Bytes{0x01, 0x02},
	}
	client, _ := startFakeEth(t, service)
	ctx := context.Background()

	height, err := client.BlockNumber(ctx)
	Require(t, err)
	require.Equal(t, uint64(1234), height)

	count, err := client.BlockTransactionCountByNumber(ctx, 1000001)
	Require(t, err)
	require.Equal(t, uint64(7), count)
	_, err = client.BlockTransactionCountByNumber(ctx, 5)
	require.ErrorIs(t, err, ethereum.NotFound)

	chainID, err := client.ChainID(ctx)
	Require(t, err)
	require.Equal(t, int64(testChainID), chainID.Int64())

	to := testhelpers.RandomAddress()
	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: []byte{0xaa}}, nil)
	Require(t, err)
	require.Equal(t, []byte{0x01, 0x02}, result)

	balance, err := client.BalanceAt(ctx, to, nil)
	Require(t, err)
	require.Zero(t, service.balance.Cmp(balance))
}

func TestClientRetriesMatchingErrors(t *testing.T) {
	service := &fakeEthService{height: 77, flakyCalls: 2}
	client, config := startFakeEth(t, service)

	height, err := client.BlockNumber(context.Background())
	Require(t, err)
	require.Equal(t, uint64(77), height)

	service.flakyCalls = int(config.Retries) + 1
	_, err = client.BlockNumber(context.Background())
	require.Error(t, err)
}

func TestTransactorSendsAndWaits(t *testing.T) {
	service := &fakeEthService{height: 10, nonce: 3, receiptAfter: 2, balance: big.NewInt(42)}
	client, _ := startFakeEth(t, service)

	key, err := crypto.GenerateKey()
	Require(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(testChainID))
	Require(t, err)
	// a fixed gas price and limit keep the fake free of fee estimation
	opts.GasPrice = big.NewInt(1)
	opts.GasLimit = 100_000
	transactor := NewTransactor(client, opts, func() time.Duration { return time.Millisecond })
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), transactor.From())

	to := testhelpers.RandomAddress()
	tx, err := transactor.SendCall(context.Background(), to, []byte{1, 2, 3})
	Require(t, err)
	require.Len(t, service.sent, 1)
	require.Equal(t, tx.Hash(), service.sent[0].Hash())
	require.Equal(t, uint64(3), tx.Nonce())
	require.Equal(t, to, *tx.To())
	require.Equal(t, []byte{1, 2, 3}, tx.Data())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(testChainID)), service.sent[0])
	Require(t, err)
	require.Equal(t, transactor.From(), sender)

	receipt, err := transactor.WaitMined(context.Background(), tx)
	Require(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, tx.Hash(), receipt.TxHash)
	require.Equal(t, 3, service.receiptPolls)

	balance, err := transactor.Balance(context.Background())
	Require(t, err)
	require.Equal(t, int64(42), balance.Int64())
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}
