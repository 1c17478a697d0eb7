// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/atelier/pkg/progress"
	goredis "github.com/redis/go-redis/v9"
)

// PausedJobs never tick within a test, so jobs stay at 0 until cancelled.
func PausedJobs() progress.Config {
	return progress.Config{Interval: time.Hour, MaxStep: 6}
}

// FastJobs complete within a few milliseconds and hold briefly.
func FastJobs() progress.Config {
	return progress.Config{Interval: time.Millisecond, MaxStep: 30, Hold: 5 * time.Millisecond}
}

// SetupRedis starts an in-process Redis and returns it with a connected client.
// Both are closed when the test ends.
func SetupRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
