package app

import (
	"os"
	"strconv"
	"sync"
)

// TestModeEnv names the variable that stops binaries from dialing Postgres,
// Redis or SMTP when they are started by `go test ./...`.
const TestModeEnv = "BIZINSIGHT_TEST_MODE"

var (
	testModeMu     sync.RWMutex
	testModeLoaded bool
	testMode       bool
)

func readTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeMu.RLock()
	loaded, on := testModeLoaded, testMode
	testModeMu.RUnlock()
	if loaded {
		return on
	}
	RefreshTestMode()
	return InTestMode()
}

// RefreshTestMode re-reads the environment after it changed.
func RefreshTestMode() {
	on := readTestMode()
	testModeMu.Lock()
	testMode, testModeLoaded = on, true
	testModeMu.Unlock()
}
