// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/cmd/genericconf"
)

// OpenWallet builds transact options signing for chainId, either from a raw
// private key or from an account in a keystore directory.
func OpenWallet(description string, walletConfig *genericconf.WalletConfig, chainId *big.Int) (*bind.TransactOpts, error) {
	if walletConfig.PrivateKey != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(walletConfig.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid %s private key: %w", description, err)
		}
		opts, err := bind.NewKeyedTransactorWithChainID(privateKey, chainId)
		if err != nil {
			return nil, err
		}
		log.Info("using wallet from private key", "description", description, "address", opts.From)
		return opts, nil
	}

	ks := keystore.NewKeyStore(walletConfig.Pathname, keystore.StandardScryptN, keystore.StandardScryptP)
	account, err := chooseAccount(ks, walletConfig.Account)
	if err != nil {
		return nil, fmt.Errorf("%s wallet: %w", description, err)
	}
	passphrase := walletConfig.Pwd()
	if passphrase == nil {
		return nil, fmt.Errorf("%s wallet: password required to unlock %v", description, account.Address)
	}
	if err := ks.Unlock(account, *passphrase); err != nil {
		return nil, fmt.Errorf("%s wallet: %w", description, err)
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(ks, account, chainId)
	if err != nil {
		return nil, err
	}
	log.Info("using wallet from keystore", "description", description, "address", opts.From, "pathname", walletConfig.Pathname)
	return opts, nil
}

func chooseAccount(ks *keystore.KeyStore, wanted string) (accounts.Account, error) {
	all := ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, errors.New("no accounts in keystore")
	}
	if wanted == "" {
		return all[0], nil
	}
	if !common.IsHexAddress(wanted) {
		return accounts.Account{}, fmt.Errorf("invalid account address %q", wanted)
	}
	address := common.HexToAddress(wanted)
	for _, account := range all {
		if account.Address == address {
			return account, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("account %v not found in keystore", address)
}
