package common

import (
	"sync/atomic"

	"github.com/apiprobe/apiprobe/common/config"
)

// Active database backend, set once by model.InitDB.
var (
	UsingSQLite     atomic.Bool
	UsingPostgreSQL atomic.Bool
	UsingMySQL      atomic.Bool
)

var SQLitePath = config.SQLitePath
var SQLiteBusyTimeout = config.SQLiteBusyTimeout
