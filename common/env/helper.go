package env

import (
	"os"
	"strconv"
	"strings"
)

// Bool reads env as a boolean. Unparseable values fall back to defaultValue.
func Bool(env string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func Int(env string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return defaultValue
	}
	num, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return num
}

func Float64(env string, defaultValue float64) float64 {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return defaultValue
	}
	num, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return num
}

func String(env string, defaultValue string) string {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return defaultValue
}
