// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package redislock keeps at most one replica active at a time by holding an
// expiring key in redis.
package redislock

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/util/redisutil"
	"github.com/offchainlabs/shadow-prover/util/stopwaiter"
)

type Config struct {
	RedisURL        string        `koanf:"redis-url"`
	MyId            string        `koanf:"my-id"`
	LockoutDuration time.Duration `koanf:"lockout-duration" reload:"hot"`
	RefreshDuration time.Duration `koanf:"refresh-duration" reload:"hot"`
	Key             string        `koanf:"key"`
}

type ConfigFetcher func() *Config

const releaseTimeout = 5 * time.Second

var DefaultConfig = Config{
	LockoutDuration: time.Minute,
	RefreshDuration: 10 * time.Second,
	Key:             "shadow-prover.active",
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".redis-url", DefaultConfig.RedisURL, "redis url used to elect the active replica (empty: always active)")
	f.String(prefix+".my-id", DefaultConfig.MyId, "this replica's id prefix when acquiring the lock (optional)")
	f.Duration(prefix+".lockout-duration", DefaultConfig.LockoutDuration, "how long lock is held")
	f.Duration(prefix+".refresh-duration", DefaultConfig.RefreshDuration, "how long between consecutive calls to redis")
	f.String(prefix+".key", DefaultConfig.Key, "key for lock")
}

func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return nil
	}
	if c.Key == "" {
		return errors.New("lock key must be set when lock.redis-url is")
	}
	if c.RefreshDuration >= c.LockoutDuration {
		return errors.New("lock refresh-duration must be shorter than lockout-duration")
	}
	return nil
}

// Lock is held by one replica at a time. A nil redis client means there is
// no contention and the lock is always held.
//
// Once started, the lock is renewed in the background every refresh-duration
// so it outlives cycles longer than lockout-duration, and AttemptLock only
// reports what the background loop holds.
type Lock struct {
	stopwaiter.StopWaiter
	client      redis.UniversalClient
	config      ConfigFetcher
	mutex       sync.Mutex
	lockedUntil atomic.Int64
	myId        string
}

func New(client redis.UniversalClient, config ConfigFetcher) (*Lock, error) {
	randBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return &Lock{
		// unique even if config is not
		myId:   config().MyId + "-" + strconv.FormatInt(randBig.Int64(), 16),
		client: client,
		config: config,
	}, nil
}

// NewFromConfig connects to lock.redis-url, if any.
func NewFromConfig(config ConfigFetcher) (*Lock, error) {
	client, err := redisutil.RedisClientFromURL(config().RedisURL)
	if err != nil {
		return nil, err
	}
	return New(client, config)
}

func (l *Lock) attemptLock(ctx context.Context) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	gotLock := false
	config := l.config()
	timeAtStart := time.Now()

	err := l.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, config.Key).Result()
		if errors.Is(err, redis.Nil) {
			current = ""
			err = nil
		}
		if err != nil {
			return err
		}
		if current != "" && current != l.myId {
			return nil
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, config.Key, l.myId, config.LockoutDuration)
		pipe.PExpireAt(ctx, config.Key, timeAtStart.Add(config.LockoutDuration))
		err = execPipe(ctx, pipe)
		if errors.Is(err, redis.TxFailedErr) {
			return nil
		}
		if err != nil {
			return err
		}
		gotLock = true
		return nil
	}, config.Key)

	if !gotLock || err != nil {
		l.lockedUntil.Store(0)
	}
	if err != nil {
		return false, err
	}
	if gotLock {
		validFor := config.RefreshDuration
		if l.Started() {
			validFor = config.LockoutDuration
		}
		l.lockedUntil.Store(timeAtStart.Add(validFor).UnixMilli())
	}
	return gotLock, nil
}

// AttemptLock returns whether this replica holds the lock. Before Start it
// renews the lock itself once refresh-duration has passed since the last
// renewal.
func (l *Lock) AttemptLock(ctx context.Context) bool {
	if l.Locked() {
		return true
	}
	if l.Started() {
		return false
	}
	res, err := l.attemptLock(ctx)
	if err != nil {
		log.Error("attemptLock returned error", "err", err)
		return false
	}
	return res
}

func (l *Lock) Locked() bool {
	if l.client == nil {
		return true
	}
	return time.Now().Before(time.UnixMilli(l.lockedUntil.Load()))
}

// Release gives the lock up if this replica holds it.
func (l *Lock) Release(ctx context.Context) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.client == nil {
		return
	}
	l.lockedUntil.Store(0)
	config := l.config()
	err := l.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, config.Key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if current != l.myId {
			return nil
		}
		pipe := tx.TxPipeline()
		pipe.Del(ctx, config.Key)
		err = execPipe(ctx, pipe)
		if errors.Is(err, redis.TxFailedErr) {
			return nil
		}
		return err
	}, config.Key)
	if err != nil {
		log.Error("release returned error", "err", err)
	}
}

// Start renews the lock in the background until StopAndWait.
func (l *Lock) Start(ctx context.Context) {
	l.StopWaiter.Start(ctx, l)
	if l.client == nil {
		return
	}
	l.CallIteratively(func(ctx context.Context) time.Duration {
		if _, err := l.attemptLock(ctx); err != nil {
			log.Error("attemptLock returned error", "err", err)
		}
		return l.config().RefreshDuration
	})
}

func (l *Lock) StopAndWait() {
	l.StopWaiter.StopAndWait()
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	l.Release(ctx)
}

func (l *Lock) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}

func execPipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmders, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}
	for _, cmder := range cmders {
		if err := cmder.Err(); err != nil {
			return err
		}
	}
	return nil
}
