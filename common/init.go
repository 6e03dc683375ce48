package common

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/Laisky/zap"

	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/logger"
)

var (
	Port   = flag.Int("port", 3000, "the listening port")
	LogDir = flag.String("log-dir", "./logs", "specify the log directory")
)

func Init() {
	flag.Parse()

	if config.JWTSecretEnvValue == "" {
		logger.Logger.Warn("JWT_SECRET is not set, issued tokens will not survive a restart")
	}

	SQLitePath = config.SQLitePath
	if *LogDir != "" {
		expanded := expandLogDirPath(*LogDir)
		lg := logger.Logger.With(zap.String("log_dir", expanded))

		var err error
		expanded, err = filepath.Abs(expanded)
		if err != nil {
			lg.Fatal("failed to get absolute log dir", zap.Error(err))
		}

		if err = os.MkdirAll(expanded, 0o777); err != nil {
			lg.Fatal("failed to create log dir", zap.Error(err))
		}

		lg.Info("set log dir", zap.String("log_dir", expanded))
		logger.LogDir = expanded
		*LogDir = expanded
	}
}
