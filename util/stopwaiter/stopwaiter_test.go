// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package stopwaiter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/shadow-prover/util/testhelpers"
)

const testStopDelayWarningTimeout = 350 * time.Millisecond

type TestStruct struct{}

func TestStopWaiterStopAndWaitTimeout(t *testing.T) {
	logHandler := testhelpers.InitTestLog(t, log.LevelTrace)
	sw := StopWaiter{}
	sw.Start(context.Background(), TestStruct{})
	sw.LaunchThread(func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(testStopDelayWarningTimeout + 150*time.Millisecond)
	})
	time.Sleep(50 * time.Millisecond)
	testhelpers.RequireImpl(t, sw.stopAndWaitImpl(testStopDelayWarningTimeout))
	if !logHandler.WasLogged("taking too long to stop") {
		testhelpers.FailImpl(t, "Failed to log about hanging on StopAndWait")
	}
}

func TestCallIterativelyIsSequential(t *testing.T) {
	sw := StopWaiter{}
	sw.Start(context.Background(), &TestStruct{})
	var running, overlaps, calls int32
	sw.CallIteratively(func(ctx context.Context) time.Duration {
		if atomic.AddInt32(&running, 1) > 1 {
			atomic.AddInt32(&overlaps, 1)
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&calls, 1)
		atomic.AddInt32(&running, -1)
		return time.Millisecond
	})
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 5 }, 5*time.Second, time.Millisecond)
	sw.StopAndWait()
	require.Zero(t, atomic.LoadInt32(&overlaps))

	after := atomic.LoadInt32(&calls)
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, after, atomic.LoadInt32(&calls))
}

func TestStopBeforeStart(t *testing.T) {
	sw := StopWaiter{}
	sw.StopAndWait()
	sw.Start(context.Background(), &TestStruct{})
	require.Error(t, sw.GetContext().Err())

	var safe StopWaiterSafe
	_, err := safe.GetContext()
	require.Error(t, err)
	require.Error(t, safe.LaunchThread(func(context.Context) {}))
	testhelpers.RequireImpl(t, safe.Start(context.Background(), &safe))
	require.Error(t, safe.Start(context.Background(), &safe))
}
