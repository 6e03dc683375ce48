package common

import (
	"os"
	"regexp"
	"strings"
)

var windowsEnvPattern = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// expandLogDirPath resolves $VAR and %VAR% placeholders in the --log-dir value.
// Unknown %VAR% placeholders are left untouched, except DATA_DIR which defaults to /data.
func expandLogDirPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}

	return windowsEnvPattern.ReplaceAllStringFunc(os.ExpandEnv(path), func(match string) string {
		key := strings.Trim(match, "%")
		if val := os.Getenv(key); val != "" {
			return val
		}
		if key == "DATA_DIR" {
			return "/data"
		}
		return match
	})
}
