package logger

import "sync"

// ResetSetupLogOnceForTests lets tests call SetupLogger more than once.
func ResetSetupLogOnceForTests() {
	setupLogOnce = sync.Once{}
}
