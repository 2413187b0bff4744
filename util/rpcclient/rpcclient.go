// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

type ClientConfig struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout" reload:"hot"`
	Retries        uint          `koanf:"retries" reload:"hot"`
	ConnectionWait time.Duration `koanf:"connection-wait"`
	ArgLogLimit    uint          `koanf:"arg-log-limit" reload:"hot"`
	RetryErrors    string        `koanf:"retry-errors" reload:"hot"`
}

type ClientConfigFetcher func() *ClientConfig

var DefaultClientConfig = ClientConfig{
	URL:            "",
	Timeout:        30 * time.Second,
	Retries:        3,
	ConnectionWait: time.Minute,
	ArgLogLimit:    2048,
	RetryErrors:    "websocket: close.*|dial tcp .*|.*i/o timeout|.*connection reset by peer|.*connection refused",
}

var TestClientConfig = ClientConfig{
	Timeout:     time.Second,
	Retries:     2,
	ArgLogLimit: 2048,
}

func (c *ClientConfig) Validate() error {
	if c.URL == "" {
		return errors.New("no url provided for this connection")
	}
	if c.RetryErrors != "" {
		if _, err := regexp.Compile(c.RetryErrors); err != nil {
			return fmt.Errorf("invalid retry-errors: %w", err)
		}
	}
	return nil
}

func RPCClientAddOptions(prefix string, f *flag.FlagSet, defaultConfig *ClientConfig) {
	f.String(prefix+".url", defaultConfig.URL, "url of server (http, https, ws or wss)")
	f.Duration(prefix+".connection-wait", defaultConfig.ConnectionWait, "how long to wait for initial connection")
	f.Duration(prefix+".timeout", defaultConfig.Timeout, "per-response timeout (0-disabled)")
	f.Uint(prefix+".arg-log-limit", defaultConfig.ArgLogLimit, "limit size of arguments in log entries")
	f.Uint(prefix+".retries", defaultConfig.Retries, "number of retries in case of failure(0 mean one attempt)")
	f.String(prefix+".retry-errors", defaultConfig.RetryErrors, "Errors matching this regular expression are automatically retried")
}

type RpcClient struct {
	config ClientConfigFetcher
	client *rpc.Client
	logId  uint64
}

func NewRpcClient(config ClientConfigFetcher) *RpcClient {
	return &RpcClient{
		config: config,
	}
}

func (c *RpcClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *RpcClient) Config() *ClientConfig {
	return c.config()
}

// Client returns the underlying connection, nil before Start.
func (c *RpcClient) Client() *rpc.Client {
	return c.client
}

func limitString(limit int, str string) string {
	if limit == 0 || len(str) <= limit {
		return str
	}
	prefix := str[:limit/2-1]
	postfix := str[len(str)-limit/2+1:]
	return fmt.Sprintf("%v..%v", prefix, postfix)
}

func logArgs(limit int, args ...interface{}) string {
	res := "["
	for i, arg := range args {
		marshalled, err := json.Marshal(arg)
		if err != nil {
			res += "\"CANNOT MARSHALL:" + limitString(limit, err.Error()) + "\""
		} else {
			res += limitString(limit, string(marshalled))
		}
		if i < len(args)-1 {
			res += ", "
		}
	}
	res += "]"
	return res
}

func (c *RpcClient) shouldRetry(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	retryErrors := c.config().RetryErrors
	if retryErrors == "" {
		return false
	}
	match, regexErr := regexp.MatchString(retryErrors, err.Error())
	if regexErr != nil {
		log.Warn("rpcclient: bad value for retry-error. Not retrying.", "err", err, "value", retryErrors)
	}
	return match
}

// Do runs call with the configured per-attempt timeout, retrying failures
// that time out or match retry-errors. label names the call in logs.
func (c *RpcClient) Do(ctxIn context.Context, label string, call func(ctx context.Context) error) error {
	if c.client == nil {
		return errors.New("not connected")
	}
	logId := atomic.AddUint64(&c.logId, 1)
	var err error
	for i := 0; i < int(c.config().Retries)+1; i++ {
		if ctxIn.Err() != nil {
			return ctxIn.Err()
		}
		var ctx context.Context
		var cancelCtx context.CancelFunc
		timeout := c.config().Timeout
		if timeout > 0 {
			ctx, cancelCtx = context.WithTimeout(ctxIn, timeout)
		} else {
			ctx, cancelCtx = context.WithCancel(ctxIn)
		}
		err = call(ctx)
		cancelCtx()
		if err == nil {
			return nil
		}
		log.Debug("rpc call failed", "call", label, "logId", logId, "attempt", i, "err", err)
		if !c.shouldRetry(err) {
			return err
		}
	}
	return err
}

func (c *RpcClient) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.client == nil {
		return errors.New("not connected")
	}
	limit := int(c.config().ArgLogLimit)
	log.Trace("sending RPC request", "method", method, "args", logArgs(limit, args...))
	err := c.Do(ctx, method, func(ctx context.Context) error {
		return c.client.CallContext(ctx, result, method, args...)
	})
	if err != nil {
		log.Info("rpc request failed", "method", method, "err", err, "args", logArgs(limit, args...))
		return err
	}
	log.Trace("rpc response", "method", method, "result", limitString(limit, fmt.Sprintf("%+v", result)))
	return nil
}

// Start dials the configured url, retrying until connection-wait elapses.
func (c *RpcClient) Start(ctxIn context.Context) error {
	url := c.config().URL
	if url == "" {
		return errors.New("no url provided for this connection")
	}
	connTimeout := time.After(c.config().ConnectionWait)
	for {
		var ctx context.Context
		var cancelCtx context.CancelFunc
		timeout := c.config().Timeout
		if timeout > 0 {
			ctx, cancelCtx = context.WithTimeout(ctxIn, timeout)
		} else {
			ctx, cancelCtx = context.WithCancel(ctxIn)
		}
		client, err := rpc.DialContext(ctx, url)
		cancelCtx()
		if err == nil {
			c.client = client
			return nil
		}
		if strings.Contains(err.Error(), "parse") ||
			strings.Contains(err.Error(), "malformed") ||
			strings.Contains(err.Error(), "no known transport") {
			return fmt.Errorf("%w: url %s", err, url)
		}
		select {
		case <-connTimeout:
			return fmt.Errorf("timeout trying to connect lastError: %w", err)
		case <-ctxIn.Done():
			return ctxIn.Err()
		case <-time.After(time.Second):
		}
	}
}
