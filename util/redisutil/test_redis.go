// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package redisutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/offchainlabs/shadow-prover/util/testhelpers"
)

// CreateTestRedis returns the url in TEST_REDIS when set, otherwise it starts
// a miniredis that lives as long as the test.
func CreateTestRedis(t *testing.T) string {
	redisUrl := os.Getenv("TEST_REDIS")
	if redisUrl != "" {
		return redisUrl
	}
	redisServer, err := miniredis.Run()
	testhelpers.RequireImpl(t, err)
	t.Cleanup(redisServer.Close)
	return fmt.Sprintf("redis://%s/0", redisServer.Addr())
}
