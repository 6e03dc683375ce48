package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/apiprobe/apiprobe/common/config"
)

func TestSetupEnhancedLogger(t *testing.T) {
	originalLogger := Logger
	originalDebug := config.DebugEnabled
	t.Cleanup(func() {
		Logger = originalLogger
		config.DebugEnabled = originalDebug
	})

	for _, debug := range []bool{true, false} {
		t.Run(fmt.Sprintf("debug_%v", debug), func(t *testing.T) {
			config.DebugEnabled = debug
			SetupEnhancedLogger()
			require.NotNil(t, Logger)
			Logger.Debug("debug entry")
			Logger.Info("info entry")
		})
	}
}

func TestSetupLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()

	originalLogDir := LogDir
	originalOnlyOne := config.OnlyOneLogFile
	originalDefaultWriter := gin.DefaultWriter
	originalDefaultErrorWriter := gin.DefaultErrorWriter

	t.Cleanup(func() {
		LogDir = originalLogDir
		config.OnlyOneLogFile = originalOnlyOne
		gin.DefaultWriter = originalDefaultWriter
		gin.DefaultErrorWriter = originalDefaultErrorWriter
		ResetSetupLogOnceForTests()
	})

	LogDir = dir
	config.OnlyOneLogFile = true
	ResetSetupLogOnceForTests()

	SetupLogger()

	_, err := fmt.Fprintln(gin.DefaultWriter, "file logging test entry")
	require.NoError(t, err)

	logPath := filepath.Join(dir, "apiprobe.log")
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(content), "file logging test entry"),
		"log file %s does not contain expected log entry", logPath)
}
