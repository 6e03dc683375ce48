package controller

import (
	"sync"
	"time"

	"github.com/apiprobe/apiprobe/common/client"
	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/engine"
)

var (
	executorMu sync.RWMutex
	executor   *engine.Engine
)

// InitExecutor builds the shared engine on top of client.HTTPClient. Call after client.Init.
func InitExecutor() {
	SetExecutor(engine.New(client.HTTPClient, defaultRequestTimeout()))
}

// SetExecutor replaces the shared engine.
func SetExecutor(e *engine.Engine) {
	executorMu.Lock()
	defer executorMu.Unlock()
	executor = e
}

func getExecutor() *engine.Engine {
	executorMu.RLock()
	e := executor
	executorMu.RUnlock()
	if e != nil {
		return e
	}

	InitExecutor()
	executorMu.RLock()
	defer executorMu.RUnlock()
	return executor
}

func defaultRequestTimeout() time.Duration {
	if config.DefaultRequestTimeout <= 0 {
		return 0
	}
	return time.Duration(config.DefaultRequestTimeout * float64(time.Second))
}
